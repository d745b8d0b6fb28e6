package engine

import (
	"fmt"
	"strings"

	"github.com/emberql/ember/errs"
)

// ParamKind tags the type of a prepared-statement parameter so it can be
// rendered back into SQL text correctly (string values single-quoted,
// everything else bare).
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamInt
	ParamLong
	ParamBool
	ParamNull
)

// Param is one bound (or unbound) positional parameter.
type Param struct {
	Kind  ParamKind
	Value string
	Bound bool
}

// PreparedStatement holds SQL text containing `?` placeholders and the
// positional parameters bound so far.
type PreparedStatement struct {
	SQL    string
	Params []Param
}

// Prepare scans sql for `?` placeholders and returns a holder with one
// unbound Param slot per placeholder.
func Prepare(sql string) *PreparedStatement {
	count := strings.Count(sql, "?")
	return &PreparedStatement{SQL: sql, Params: make([]Param, count)}
}

// Bind sets the value of the 1-indexed parameter at position.
func (ps *PreparedStatement) Bind(position int, kind ParamKind, value string) error {
	if position < 1 || position > len(ps.Params) {
		return &errs.ArgumentError{Detail: fmt.Sprintf("parameter position %d out of range (statement has %d)", position, len(ps.Params))}
	}
	ps.Params[position-1] = Param{Kind: kind, Value: value, Bound: true}
	return nil
}

// Render substitutes every `?` with its bound parameter's literal
// rendering, in left-to-right order. Failing to bind any parameter
// before rendering is an error.
func (ps *PreparedStatement) Render() (string, error) {
	var out strings.Builder
	paramIdx := 0
	for _, r := range ps.SQL {
		if r != '?' {
			out.WriteRune(r)
			continue
		}
		if paramIdx >= len(ps.Params) || !ps.Params[paramIdx].Bound {
			return "", &errs.ArgumentError{Detail: fmt.Sprintf("parameter %d was never bound", paramIdx+1)}
		}
		out.WriteString(renderParam(ps.Params[paramIdx]))
		paramIdx++
	}
	return out.String(), nil
}

func renderParam(p Param) string {
	switch p.Kind {
	case ParamNull:
		return "NULL"
	case ParamString:
		return "'" + strings.ReplaceAll(p.Value, "'", "''") + "'"
	default:
		return p.Value
	}
}
