package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emberql/ember/ast"
	"github.com/emberql/ember/table"
)

// literalValue resolves a WHERE-clause literal expression to its string
// form, reporting whether it denoted NULL. Placeholders must already have
// been substituted by prepare/execute_prepared before reaching here.
func literalValue(expr ast.Expression) (value string, isNull bool) {
	switch e := expr.(type) {
	case *ast.StringLiteral:
		return e.Value, false
	case *ast.NumberLiteral:
		return e.Value, false
	case *ast.NullLiteral:
		return "", true
	default:
		return expr.String(), false
	}
}

// matchesPredicate evaluates a WHERE expression against one record.
func matchesPredicate(expr ast.Expression, rec *table.Record) (bool, error) {
	switch e := expr.(type) {
	case *ast.AndExpr:
		left, err := matchesPredicate(e.Left, rec)
		if err != nil || !left {
			return false, err
		}
		return matchesPredicate(e.Right, rec)

	case *ast.IsNullExpr:
		_, ok := rec.Get(e.Column.Value)
		if e.Not {
			return ok, nil
		}
		return !ok, nil

	case *ast.LikeExpr:
		v, ok := rec.Get(e.Column.Value)
		if !ok {
			return false, nil
		}
		re, err := likeToRegexp(e.Pattern.Value)
		if err != nil {
			return false, err
		}
		matched := re.MatchString(v)
		if e.Not {
			return !matched, nil
		}
		return matched, nil

	case *ast.BetweenExpr:
		v, ok := rec.Get(e.Column.Value)
		if !ok {
			return false, nil
		}
		low, _ := literalValue(e.Low)
		high, _ := literalValue(e.High)
		in := v >= low && v <= high
		if e.Not {
			return !in, nil
		}
		return in, nil

	case *ast.InExpr:
		v, ok := rec.Get(e.Column.Value)
		if !ok {
			return false, nil
		}
		found := false
		for _, item := range e.Values {
			lit, _ := literalValue(item)
			if lit == v {
				found = true
				break
			}
		}
		if e.Not {
			return !found, nil
		}
		return found, nil

	case *ast.BinaryExpr:
		v, ok := rec.Get(e.Column.Value)
		if !ok {
			return false, nil
		}
		target, isNull := literalValue(e.Value)
		if isNull {
			return false, nil
		}
		return compareBinary(v, e.Operator, target), nil

	default:
		return false, fmt.Errorf("engine: unsupported predicate expression %T", expr)
	}
}

func compareBinary(left, operator, right string) bool {
	switch operator {
	case "=":
		return left == right
	case "!=", "<>":
		return left != right
	case ">":
		return left > right
	case ">=":
		return left >= right
	case "<":
		return left < right
	case "<=":
		return left <= right
	default:
		return false
	}
}

// likeToRegexp translates a SQL LIKE pattern (% any run, _ one char, other
// metacharacters literal) into an anchored regular expression.
func likeToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

// indexedEquality reports the column and value of a single `col = lit`
// predicate usable as an index point-lookup, per the Select execution
// rule that only this shape bypasses a full scan.
func indexedEquality(expr ast.Expression) (column, value string, ok bool) {
	b, isBinary := expr.(*ast.BinaryExpr)
	if !isBinary || b.Operator != "=" {
		return "", "", false
	}
	v, isNull := literalValue(b.Value)
	if isNull {
		return "", "", false
	}
	return b.Column.Value, v, true
}
