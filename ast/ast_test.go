package ast

import (
	"testing"

	"github.com/emberql/ember/token"
	"github.com/stretchr/testify/require"
)

func TestSelectStatementString(t *testing.T) {
	stmt := &SelectStatement{
		Token: token.Token{Type: token.SELECT, Literal: "SELECT"},
		Table: &Identifier{Value: "users"},
		Where: &BinaryExpr{
			Column:   &Identifier{Value: "id"},
			Operator: "=",
			Value:    &NumberLiteral{Value: "2"},
		},
	}
	require.Equal(t, "SELECT * FROM users WHERE id = 2", stmt.String())
}

func TestInsertStatementString(t *testing.T) {
	stmt := &InsertStatement{
		Table:   &Identifier{Value: "users"},
		Columns: []*Identifier{{Value: "id"}, {Value: "name"}},
		Values:  []Expression{&NumberLiteral{Value: "1"}, &StringLiteral{Value: "Alice"}},
	}
	require.Equal(t, "INSERT INTO users (id, name) VALUES (1, 'Alice')", stmt.String())
}

func TestBetweenExprString(t *testing.T) {
	e := &BetweenExpr{
		Column: &Identifier{Value: "price"},
		Low:    &NumberLiteral{Value: "10"},
		High:   &NumberLiteral{Value: "20"},
	}
	require.Equal(t, "price BETWEEN 10 AND 20", e.String())
}

func TestIsNullExprString(t *testing.T) {
	e := &IsNullExpr{Column: &Identifier{Value: "mgr"}, Not: true}
	require.Equal(t, "mgr IS NOT NULL", e.String())
}

func TestShowStatementString(t *testing.T) {
	s := &ShowStatement{Kind: ShowIndexes, Table: &Identifier{Value: "users"}}
	require.Equal(t, "SHOW INDEXES FROM users", s.String())
}
