package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberql/ember/ast"
	"github.com/emberql/ember/table"
)

func newRecord(values map[string]string) *table.Record {
	return &table.Record{ID: 1, Values: values}
}

func ident(name string) *ast.Identifier { return &ast.Identifier{Value: name} }

func num(v string) *ast.NumberLiteral { return &ast.NumberLiteral{Value: v} }

func TestLikeToRegexpTranslatesWildcards(t *testing.T) {
	re, err := likeToRegexp("A%_e")
	require.NoError(t, err)
	require.True(t, re.MatchString("Alice"))
	require.False(t, re.MatchString("Bob"))
}

func TestLikeToRegexpEscapesMetacharacters(t *testing.T) {
	re, err := likeToRegexp("a.b")
	require.NoError(t, err)
	require.True(t, re.MatchString("a.b"))
	require.False(t, re.MatchString("axb"))
}

func TestCompareBinaryOperators(t *testing.T) {
	require.True(t, compareBinary("5", ">=", "5"))
	require.True(t, compareBinary("10", ">", "9"))
	require.True(t, compareBinary("a", "!=", "b"))
	require.False(t, compareBinary("a", "=", "b"))
}

func TestIndexedEqualityRecognizesSimpleEquals(t *testing.T) {
	col, val, ok := indexedEquality(&ast.BinaryExpr{Column: ident("id"), Operator: "=", Value: num("2")})
	require.True(t, ok)
	require.Equal(t, "id", col)
	require.Equal(t, "2", val)

	_, _, ok = indexedEquality(&ast.BinaryExpr{Column: ident("id"), Operator: ">", Value: num("2")})
	require.False(t, ok)
}

func TestMatchesPredicateIsNull(t *testing.T) {
	rec := newRecord(map[string]string{"id": "1"})
	match, err := matchesPredicate(&ast.IsNullExpr{Column: ident("mgr")}, rec)
	require.NoError(t, err)
	require.True(t, match)

	match, err = matchesPredicate(&ast.IsNullExpr{Column: ident("id")}, rec)
	require.NoError(t, err)
	require.False(t, match)
}

func TestMatchesPredicateBetween(t *testing.T) {
	rec := newRecord(map[string]string{"price": "050"})
	match, err := matchesPredicate(&ast.BetweenExpr{Column: ident("price"), Low: num("010"), High: num("090")}, rec)
	require.NoError(t, err)
	require.True(t, match)
}

func TestMatchesPredicateAndConjunction(t *testing.T) {
	rec := newRecord(map[string]string{"cat": "B", "price": "25"})
	expr := &ast.AndExpr{
		Left:  &ast.BinaryExpr{Column: ident("cat"), Operator: "=", Value: &ast.StringLiteral{Value: "B"}},
		Right: &ast.BinaryExpr{Column: ident("price"), Operator: ">", Value: num("10")},
	}
	match, err := matchesPredicate(expr, rec)
	require.NoError(t, err)
	require.True(t, match)
}
