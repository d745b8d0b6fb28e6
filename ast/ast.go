// Package ast defines the Abstract Syntax Tree nodes for the ember SQL
// dialect: a tagged variant per statement kind, dispatched on by the
// executor rather than modeled as a class hierarchy.
package ast

import (
	"fmt"
	"strings"

	"github.com/emberql/ember/token"
)

// Node is the base interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is a top-level parsed SQL operation.
type Statement interface {
	Node
	statementNode()
}

// Expression is a WHERE-clause predicate or a literal value.
type Expression interface {
	Node
	expressionNode()
}

// JoinType enumerates the join kinds recognized by the Join statement.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

func (j JoinType) String() string {
	switch j {
	case InnerJoin:
		return "INNER"
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	case FullJoin:
		return "FULL"
	default:
		return "INNER"
	}
}

// ShowKind enumerates the SHOW statement variants.
type ShowKind int

const (
	ShowTables ShowKind = iota
	ShowIndexes
	ShowStats
	ShowDatabases
)

func (s ShowKind) String() string {
	switch s {
	case ShowTables:
		return "TABLES"
	case ShowIndexes:
		return "INDEXES"
	case ShowStats:
		return "STATS"
	case ShowDatabases:
		return "DATABASES"
	default:
		return "TABLES"
	}
}

// -----------------------------------------------------------------------------
// Identifiers and literals
// -----------------------------------------------------------------------------

// Identifier names a table or column.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// StringLiteral is a single-quoted string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (s *StringLiteral) expressionNode()      {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) String() string       { return "'" + s.Value + "'" }

// NumberLiteral is a bare integer or floating-point literal, carried as a
// string throughout the engine per the comparison model (strings compare
// lexicographically, never numerically).
type NumberLiteral struct {
	Token token.Token
	Value string
}

func (n *NumberLiteral) expressionNode()      {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) String() string       { return n.Value }

// NullLiteral is the NULL keyword used as a value.
type NullLiteral struct {
	Token token.Token
}

func (n *NullLiteral) expressionNode()      {}
func (n *NullLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NullLiteral) String() string       { return "NULL" }

// Placeholder is a positional `?` parameter in a prepared statement.
type Placeholder struct {
	Token token.Token
	Index int // 1-indexed position within the statement
}

func (p *Placeholder) expressionNode()      {}
func (p *Placeholder) TokenLiteral() string { return p.Token.Literal }
func (p *Placeholder) String() string       { return "?" }

// -----------------------------------------------------------------------------
// WHERE-predicate expression forms (first-match-wins order)
// -----------------------------------------------------------------------------

// IsNullExpr is `col IS NULL` / `col IS NOT NULL`.
type IsNullExpr struct {
	Token  token.Token
	Column *Identifier
	Not    bool
}

func (e *IsNullExpr) expressionNode()      {}
func (e *IsNullExpr) TokenLiteral() string { return e.Token.Literal }
func (e *IsNullExpr) String() string {
	if e.Not {
		return fmt.Sprintf("%s IS NOT NULL", e.Column.String())
	}
	return fmt.Sprintf("%s IS NULL", e.Column.String())
}

// LikeExpr is `col LIKE pat` / `col NOT LIKE pat`.
type LikeExpr struct {
	Token   token.Token
	Column  *Identifier
	Pattern *StringLiteral
	Not     bool
}

func (e *LikeExpr) expressionNode()      {}
func (e *LikeExpr) TokenLiteral() string { return e.Token.Literal }
func (e *LikeExpr) String() string {
	op := "LIKE"
	if e.Not {
		op = "NOT LIKE"
	}
	return fmt.Sprintf("%s %s %s", e.Column.String(), op, e.Pattern.String())
}

// BetweenExpr is `col BETWEEN a AND b` / `col NOT BETWEEN a AND b`.
type BetweenExpr struct {
	Token  token.Token
	Column *Identifier
	Low    Expression
	High   Expression
	Not    bool
}

func (e *BetweenExpr) expressionNode()      {}
func (e *BetweenExpr) TokenLiteral() string { return e.Token.Literal }
func (e *BetweenExpr) String() string {
	op := "BETWEEN"
	if e.Not {
		op = "NOT BETWEEN"
	}
	return fmt.Sprintf("%s %s %s AND %s", e.Column.String(), op, e.Low.String(), e.High.String())
}

// InExpr is `col IN (v1, ..., vn)` / `col NOT IN (...)`.
type InExpr struct {
	Token  token.Token
	Column *Identifier
	Values []Expression
	Not    bool
}

func (e *InExpr) expressionNode()      {}
func (e *InExpr) TokenLiteral() string { return e.Token.Literal }
func (e *InExpr) String() string {
	op := "IN"
	if e.Not {
		op = "NOT IN"
	}
	var vals []string
	for _, v := range e.Values {
		vals = append(vals, v.String())
	}
	return fmt.Sprintf("%s %s (%s)", e.Column.String(), op, strings.Join(vals, ", "))
}

// BinaryExpr is a comparison: `col >= lit`, `col != lit`, etc.
type BinaryExpr struct {
	Token    token.Token
	Column   *Identifier
	Operator string // ">=", "<=", "!=", "<>", ">", "<", "="
	Value    Expression
}

func (e *BinaryExpr) expressionNode()      {}
func (e *BinaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.Column.String(), e.Operator, e.Value.String())
}

// AndExpr conjoins two predicates, used to chain multiple WHERE clauses
// joined by AND.
type AndExpr struct {
	Token token.Token
	Left  Expression
	Right Expression
}

func (e *AndExpr) expressionNode()      {}
func (e *AndExpr) TokenLiteral() string { return e.Token.Literal }
func (e *AndExpr) String() string {
	return fmt.Sprintf("%s AND %s", e.Left.String(), e.Right.String())
}

// -----------------------------------------------------------------------------
// Supporting structures
// -----------------------------------------------------------------------------

// OrderTerm is one column of an ORDER BY clause.
type OrderTerm struct {
	Column    *Identifier
	Ascending bool
}

// ColumnDef describes one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name          string
	Type          string
	Length        int // for VARCHAR(n); 0 if unspecified
	AutoIncrement bool
	PrimaryKey    bool
	Unique        bool
	NotNull       bool
	Default       Expression // nil if absent
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// SelectStatement is `SELECT col_list FROM ident [WHERE ...] [ORDER BY ...]
// [LIMIT n [OFFSET m]]`.
type SelectStatement struct {
	Token   token.Token
	Table   *Identifier
	Columns []*Identifier // empty means "*"
	Where   Expression    // nil if absent
	OrderBy []OrderTerm
	Limit   *int
	Offset  *int
}

func (s *SelectStatement) statementNode()      {}
func (s *SelectStatement) TokenLiteral() string { return s.Token.Literal }
func (s *SelectStatement) String() string {
	var out strings.Builder
	out.WriteString("SELECT ")
	if len(s.Columns) == 0 {
		out.WriteString("*")
	} else {
		var cols []string
		for _, c := range s.Columns {
			cols = append(cols, c.String())
		}
		out.WriteString(strings.Join(cols, ", "))
	}
	out.WriteString(" FROM ")
	out.WriteString(s.Table.String())
	if s.Where != nil {
		out.WriteString(" WHERE ")
		out.WriteString(s.Where.String())
	}
	return out.String()
}

// JoinStatement is the two-table join form.
type JoinStatement struct {
	Token       token.Token
	Columns     []*Identifier
	LeftTable   *Identifier
	RightTable  *Identifier
	LeftColumn  *Identifier
	RightColumn *Identifier
	JoinType    JoinType
	Where       Expression
}

func (j *JoinStatement) statementNode()      {}
func (j *JoinStatement) TokenLiteral() string { return j.Token.Literal }
func (j *JoinStatement) String() string {
	return fmt.Sprintf("SELECT ... FROM %s %s JOIN %s ON %s = %s",
		j.LeftTable.String(), j.JoinType.String(), j.RightTable.String(),
		j.LeftColumn.String(), j.RightColumn.String())
}

// InsertStatement is `INSERT INTO ident (cols) VALUES (lits)`.
type InsertStatement struct {
	Token   token.Token
	Table   *Identifier
	Columns []*Identifier
	Values  []Expression
}

func (i *InsertStatement) statementNode()      {}
func (i *InsertStatement) TokenLiteral() string { return i.Token.Literal }
func (i *InsertStatement) String() string {
	var cols, vals []string
	for _, c := range i.Columns {
		cols = append(cols, c.String())
	}
	for _, v := range i.Values {
		vals = append(vals, v.String())
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		i.Table.String(), strings.Join(cols, ", "), strings.Join(vals, ", "))
}

// Assignment is one `col = lit` pair in an UPDATE's SET list.
type Assignment struct {
	Column *Identifier
	Value  Expression
}

// UpdateStatement is `UPDATE ident SET assign_list [WHERE ...]`.
type UpdateStatement struct {
	Token   token.Token
	Table   *Identifier
	Updates []Assignment
	Where   Expression
}

func (u *UpdateStatement) statementNode()      {}
func (u *UpdateStatement) TokenLiteral() string { return u.Token.Literal }
func (u *UpdateStatement) String() string {
	var sets []string
	for _, a := range u.Updates {
		sets = append(sets, fmt.Sprintf("%s = %s", a.Column.String(), a.Value.String()))
	}
	out := fmt.Sprintf("UPDATE %s SET %s", u.Table.String(), strings.Join(sets, ", "))
	if u.Where != nil {
		out += " WHERE " + u.Where.String()
	}
	return out
}

// DeleteStatement is `DELETE FROM ident [WHERE ...]`.
type DeleteStatement struct {
	Token token.Token
	Table *Identifier
	Where Expression
}

func (d *DeleteStatement) statementNode()      {}
func (d *DeleteStatement) TokenLiteral() string { return d.Token.Literal }
func (d *DeleteStatement) String() string {
	out := "DELETE FROM " + d.Table.String()
	if d.Where != nil {
		out += " WHERE " + d.Where.String()
	}
	return out
}

// CreateTableStatement is `CREATE TABLE ident (col_def_list)`.
type CreateTableStatement struct {
	Token   token.Token
	Table   *Identifier
	Columns []ColumnDef
}

func (c *CreateTableStatement) statementNode()      {}
func (c *CreateTableStatement) TokenLiteral() string { return c.Token.Literal }
func (c *CreateTableStatement) String() string {
	var defs []string
	for _, col := range c.Columns {
		defs = append(defs, col.Name+" "+col.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", c.Table.String(), strings.Join(defs, ", "))
}

// CreateIndexStatement is `CREATE INDEX ident ON ident (ident)`.
type CreateIndexStatement struct {
	Token     token.Token
	IndexName *Identifier
	Table     *Identifier
	Column    *Identifier
}

func (c *CreateIndexStatement) statementNode()      {}
func (c *CreateIndexStatement) TokenLiteral() string { return c.Token.Literal }
func (c *CreateIndexStatement) String() string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		c.IndexName.String(), c.Table.String(), c.Column.String())
}

// ShowStatement is `SHOW (TABLES | STATS | INDEXES [FROM ident] | DATABASES)`.
type ShowStatement struct {
	Token token.Token
	Kind  ShowKind
	Table *Identifier // non-nil only for SHOW INDEXES FROM ident
}

func (s *ShowStatement) statementNode()      {}
func (s *ShowStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ShowStatement) String() string {
	if s.Table != nil {
		return fmt.Sprintf("SHOW %s FROM %s", s.Kind.String(), s.Table.String())
	}
	return "SHOW " + s.Kind.String()
}

// ExplainStatement is `EXPLAIN stmt`.
type ExplainStatement struct {
	Token token.Token
	Inner Statement
}

func (e *ExplainStatement) statementNode()      {}
func (e *ExplainStatement) TokenLiteral() string { return e.Token.Literal }
func (e *ExplainStatement) String() string       { return "EXPLAIN " + e.Inner.String() }

// VacuumStatement is `VACUUM [ident]`.
type VacuumStatement struct {
	Token token.Token
	Table *Identifier // nil means all tables
}

func (v *VacuumStatement) statementNode()      {}
func (v *VacuumStatement) TokenLiteral() string { return v.Token.Literal }
func (v *VacuumStatement) String() string {
	if v.Table != nil {
		return "VACUUM " + v.Table.String()
	}
	return "VACUUM"
}

// AnalyzeStatement is `ANALYZE [ident]`.
type AnalyzeStatement struct {
	Token token.Token
	Table *Identifier
}

func (a *AnalyzeStatement) statementNode()      {}
func (a *AnalyzeStatement) TokenLiteral() string { return a.Token.Literal }
func (a *AnalyzeStatement) String() string {
	if a.Table != nil {
		return "ANALYZE " + a.Table.String()
	}
	return "ANALYZE"
}
