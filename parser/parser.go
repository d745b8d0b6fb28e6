// Package parser implements a hand-written recursive-descent parser for
// the ember SQL dialect.
package parser

import (
	"fmt"
	"strconv"

	"github.com/emberql/ember/ast"
	"github.com/emberql/ember/lexer"
	"github.com/emberql/ember/token"
)

// Parser turns a token stream into a single tagged Statement. Errors
// accumulate in p.errors rather than panicking, following the convention
// of reporting every parse problem found rather than stopping at the
// first one.
type Parser struct {
	l      *lexer.Lexer
	errors []string

	curToken  token.Token
	peekToken token.Token

	placeholderCount int
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, errors: []string{}}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every error accumulated while parsing.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	for p.peekToken.Type == token.COMMENT {
		p.peekToken = p.l.NextToken()
	}
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	p.errors = append(p.errors, fmt.Sprintf(
		"line %d, col %d: expected %s, got %s (%q)",
		p.peekToken.Line, p.peekToken.Column, t, p.peekToken.Type, p.peekToken.Literal))
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

// ParseStatement parses exactly one statement from the token stream;
// problems found along the way are reported through Errors(). Unknown
// leading keywords fail with
// "unsupported statement" per the grammar's error-reporting requirement.
func (p *Parser) ParseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.SELECT:
		return p.parseSelectOrJoin()
	case token.INSERT:
		return p.parseInsert()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	case token.CREATE:
		return p.parseCreate()
	case token.SHOW:
		return p.parseShow()
	case token.EXPLAIN:
		return p.parseExplain()
	case token.VACUUM:
		return p.parseVacuum()
	case token.ANALYZE:
		return p.parseAnalyze()
	default:
		p.errorf("unsupported statement: unexpected token %s (%q)", p.curToken.Type, p.curToken.Literal)
		return nil
	}
}

// ParseProgram parses every semicolon-separated statement in the input.
// Backup import does not use it: ImportBackup splits the text on ';'
// itself and executes each statement through ExecuteSQL.
func (p *Parser) ParseProgram() []ast.Statement {
	var stmts []ast.Statement
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.ParseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		for !p.curTokenIs(token.SEMICOLON) && !p.curTokenIs(token.EOF) {
			p.nextToken()
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
	}
	return stmts
}

// -----------------------------------------------------------------------------
// SELECT / JOIN
// -----------------------------------------------------------------------------

func (p *Parser) parseSelectOrJoin() ast.Statement {
	tok := p.curToken
	columns, allColumns := p.parseColumnList()

	if !p.expectPeek(token.FROM) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	leftTable := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(token.JOIN) || p.isJoinKeyword(p.peekToken.Type) {
		return p.parseJoin(tok, columns, leftTable)
	}

	stmt := &ast.SelectStatement{Token: tok, Table: leftTable}
	if !allColumns {
		stmt.Columns = columns
	}

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		stmt.Where = p.parsePredicate()
	}

	if p.peekTokenIs(token.ORDER) {
		p.nextToken()
		if !p.expectPeek(token.BY) {
			return nil
		}
		stmt.OrderBy = p.parseOrderByList()
	}

	if p.peekTokenIs(token.LIMIT) {
		p.nextToken()
		if !p.expectPeek(token.INT) {
			return nil
		}
		n, _ := strconv.Atoi(p.curToken.Literal)
		stmt.Limit = &n

		if p.peekTokenIs(token.OFFSET) {
			p.nextToken()
			if !p.expectPeek(token.INT) {
				return nil
			}
			m, _ := strconv.Atoi(p.curToken.Literal)
			stmt.Offset = &m
		}
	}

	return stmt
}

func (p *Parser) isJoinKeyword(t token.Type) bool {
	switch t {
	case token.INNER, token.LEFT, token.RIGHT, token.FULL:
		return true
	default:
		return false
	}
}

func (p *Parser) parseJoin(tok token.Token, columns []*ast.Identifier, leftTable *ast.Identifier) ast.Statement {
	jt := ast.InnerJoin
	switch p.peekToken.Type {
	case token.INNER:
		jt = ast.InnerJoin
		p.nextToken()
	case token.LEFT:
		jt = ast.LeftJoin
		p.nextToken()
	case token.RIGHT:
		jt = ast.RightJoin
		p.nextToken()
	case token.FULL:
		jt = ast.FullJoin
		p.nextToken()
	}
	if p.peekTokenIs(token.OUTER) {
		p.nextToken()
	}
	if !p.expectPeek(token.JOIN) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	rightTable := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.ON) {
		return nil
	}
	p.nextToken()

	leftCol := p.parseQualifiedColumn()
	if !p.expectPeek(token.EQ) {
		return nil
	}
	p.nextToken()
	rightCol := p.parseQualifiedColumn()

	stmt := &ast.JoinStatement{
		Token:       tok,
		Columns:     columns,
		LeftTable:   leftTable,
		RightTable:  rightTable,
		LeftColumn:  leftCol,
		RightColumn: rightCol,
		JoinType:    jt,
	}

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		stmt.Where = p.parsePredicate()
	}

	return stmt
}

// parseQualifiedColumn reads `table.column` or a bare `column`, returning
// just the column identifier (the table qualifier is informational only
// in this grammar).
func (p *Parser) parseQualifiedColumn() *ast.Identifier {
	if !p.curTokenIs(token.IDENT) {
		p.errorf("line %d: expected column identifier, got %s", p.curToken.Line, p.curToken.Type)
		return &ast.Identifier{}
	}
	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if p.peekTokenIs(token.DOT) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return ident
		}
		ident = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	return ident
}

func (p *Parser) parseColumnList() (cols []*ast.Identifier, allColumns bool) {
	if p.peekTokenIs(token.ASTERISK) {
		p.nextToken()
		return nil, true
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return cols, false
		}
		cols = append(cols, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return cols, false
}

func (p *Parser) parseOrderByList() []ast.OrderTerm {
	var terms []ast.OrderTerm
	for {
		if !p.expectPeek(token.IDENT) {
			return terms
		}
		term := ast.OrderTerm{Column: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}, Ascending: true}
		if p.peekTokenIs(token.ASC) {
			p.nextToken()
		} else if p.peekTokenIs(token.DESC) {
			p.nextToken()
			term.Ascending = false
		}
		terms = append(terms, term)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return terms
}

// -----------------------------------------------------------------------------
// WHERE predicates (first-match-wins per form)
// -----------------------------------------------------------------------------

func (p *Parser) parsePredicate() ast.Expression {
	left := p.parseSinglePredicate()
	if left == nil {
		return nil
	}
	if p.peekTokenIs(token.AND) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parsePredicate()
		return &ast.AndExpr{Token: tok, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseSinglePredicate() ast.Expression {
	if !p.curTokenIs(token.IDENT) {
		p.errorf("line %d: malformed where-clause: expected column, got %s", p.curToken.Line, p.curToken.Type)
		return nil
	}
	col := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	switch p.peekToken.Type {
	case token.IS:
		tok := p.peekToken
		p.nextToken()
		not := false
		if p.peekTokenIs(token.NOT) {
			not = true
			p.nextToken()
		}
		if !p.expectPeek(token.NULL) {
			return nil
		}
		return &ast.IsNullExpr{Token: tok, Column: col, Not: not}

	case token.LIKE:
		tok := p.peekToken
		p.nextToken()
		if !p.expectPeek(token.STRING) {
			return nil
		}
		pat := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		return &ast.LikeExpr{Token: tok, Column: col, Pattern: pat}

	case token.BETWEEN:
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		low := p.parseLiteral()
		if !p.expectPeek(token.AND) {
			return nil
		}
		p.nextToken()
		high := p.parseLiteral()
		return &ast.BetweenExpr{Token: tok, Column: col, Low: low, High: high}

	case token.IN:
		tok := p.peekToken
		p.nextToken()
		return p.finishIn(tok, col, false)

	case token.NOT:
		tok := p.peekToken
		p.nextToken()
		switch p.peekToken.Type {
		case token.LIKE:
			p.nextToken()
			if !p.expectPeek(token.STRING) {
				return nil
			}
			pat := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
			return &ast.LikeExpr{Token: tok, Column: col, Pattern: pat, Not: true}
		case token.BETWEEN:
			p.nextToken()
			p.nextToken()
			low := p.parseLiteral()
			if !p.expectPeek(token.AND) {
				return nil
			}
			p.nextToken()
			high := p.parseLiteral()
			return &ast.BetweenExpr{Token: tok, Column: col, Low: low, High: high, Not: true}
		case token.IN:
			p.nextToken()
			return p.finishIn(tok, col, true)
		default:
			p.errorf("line %d: malformed where-clause: NOT must precede LIKE, BETWEEN, or IN", tok.Line)
			return nil
		}

	case token.GTE, token.LTE, token.NEQ, token.GT, token.LT, token.EQ:
		op := p.peekToken.Literal
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		val := p.parseLiteral()
		return &ast.BinaryExpr{Token: tok, Column: col, Operator: op, Value: val}

	default:
		p.errorf("line %d: malformed where-clause: unexpected token %s after %s", p.peekToken.Line, p.peekToken.Type, col.Value)
		return nil
	}
}

func (p *Parser) finishIn(tok token.Token, col *ast.Identifier, not bool) ast.Expression {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	var values []ast.Expression
	if !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		values = append(values, p.parseLiteral())
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			values = append(values, p.parseLiteral())
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.InExpr{Token: tok, Column: col, Values: values, Not: not}
}

func (p *Parser) parseLiteral() ast.Expression {
	switch p.curToken.Type {
	case token.STRING:
		return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	case token.INT, token.FLOAT:
		return &ast.NumberLiteral{Token: p.curToken, Value: p.curToken.Literal}
	case token.NULL:
		return &ast.NullLiteral{Token: p.curToken}
	case token.PLACEHOLDER:
		p.placeholderCount++
		return &ast.Placeholder{Token: p.curToken, Index: p.placeholderCount}
	default:
		p.errorf("line %d: expected literal value, got %s", p.curToken.Line, p.curToken.Type)
		return &ast.NullLiteral{Token: p.curToken}
	}
}

// -----------------------------------------------------------------------------
// INSERT / UPDATE / DELETE
// -----------------------------------------------------------------------------

func (p *Parser) parseInsert() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.INTO) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	table := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	var cols []*ast.Identifier
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		cols = append(cols, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	if !p.expectPeek(token.VALUES) {
		return nil
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	var vals []ast.Expression
	for {
		p.nextToken()
		vals = append(vals, p.parseLiteral())
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	if len(cols) != len(vals) {
		p.errorf("line %d: column count %d does not match value count %d", tok.Line, len(cols), len(vals))
	}

	return &ast.InsertStatement{Token: tok, Table: table, Columns: cols, Values: vals}
}

func (p *Parser) parseUpdate() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	table := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.SET) {
		return nil
	}

	var updates []ast.Assignment
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		col := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
		if !p.expectPeek(token.EQ) {
			return nil
		}
		p.nextToken()
		val := p.parseLiteral()
		updates = append(updates, ast.Assignment{Column: col, Value: val})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	stmt := &ast.UpdateStatement{Token: tok, Table: table, Updates: updates}
	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		stmt.Where = p.parsePredicate()
	}
	return stmt
}

func (p *Parser) parseDelete() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.FROM) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	table := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	stmt := &ast.DeleteStatement{Token: tok, Table: table}
	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		stmt.Where = p.parsePredicate()
	}
	return stmt
}

// -----------------------------------------------------------------------------
// CREATE TABLE / CREATE INDEX
// -----------------------------------------------------------------------------

func (p *Parser) parseCreate() ast.Statement {
	tok := p.curToken
	switch p.peekToken.Type {
	case token.TABLE:
		p.nextToken()
		return p.parseCreateTable(tok)
	case token.INDEX:
		p.nextToken()
		return p.parseCreateIndex(tok)
	default:
		p.errorf("line %d: expected TABLE or INDEX after CREATE, got %s", p.peekToken.Line, p.peekToken.Type)
		return nil
	}
}

func (p *Parser) parseCreateTable(tok token.Token) ast.Statement {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	table := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	var cols []ast.ColumnDef
	for {
		col, ok := p.parseColumnDef()
		if !ok {
			return nil
		}
		cols = append(cols, col)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return &ast.CreateTableStatement{Token: tok, Table: table, Columns: cols}
}

func (p *Parser) parseColumnDef() (ast.ColumnDef, bool) {
	if !p.expectPeek(token.IDENT) {
		return ast.ColumnDef{}, false
	}
	def := ast.ColumnDef{Name: p.curToken.Literal}

	if !p.isTypeToken(p.peekToken.Type) {
		p.errorf("line %d: expected a column type, got %s", p.peekToken.Line, p.peekToken.Type)
		return def, false
	}
	p.nextToken()
	def.Type = p.curToken.Type.String()

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		if !p.expectPeek(token.INT) {
			return def, false
		}
		n, _ := strconv.Atoi(p.curToken.Literal)
		def.Length = n
		if !p.expectPeek(token.RPAREN) {
			return def, false
		}
	}

	for {
		switch p.peekToken.Type {
		case token.AUTO_INCREMENT:
			p.nextToken()
			def.AutoIncrement = true
			continue
		case token.PRIMARY:
			p.nextToken()
			if !p.expectPeek(token.KEY) {
				return def, false
			}
			def.PrimaryKey = true
			continue
		case token.UNIQUE:
			p.nextToken()
			def.Unique = true
			continue
		case token.NOT:
			p.nextToken()
			if !p.expectPeek(token.NULL) {
				return def, false
			}
			def.NotNull = true
			continue
		case token.DEFAULT:
			p.nextToken()
			p.nextToken()
			def.Default = p.parseLiteral()
			continue
		}
		break
	}

	return def, true
}

func (p *Parser) isTypeToken(t token.Type) bool {
	switch t {
	case token.INTEGER, token.VARCHAR, token.CHAR, token.TEXT, token.DATE,
		token.DATETIME, token.TIMESTAMP, token.BOOLEAN, token.DECIMAL,
		token.FLOAT_TYPE, token.DOUBLE, token.BIGINT, token.SMALLINT, token.TINYINT:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCreateIndex(tok token.Token) ast.Statement {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.ON) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	table := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	col := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return &ast.CreateIndexStatement{Token: tok, IndexName: name, Table: table, Column: col}
}

// -----------------------------------------------------------------------------
// SHOW / EXPLAIN / VACUUM / ANALYZE
// -----------------------------------------------------------------------------

func (p *Parser) parseShow() ast.Statement {
	tok := p.curToken
	switch p.peekToken.Type {
	case token.TABLES:
		p.nextToken()
		return &ast.ShowStatement{Token: tok, Kind: ast.ShowTables}
	case token.STATS:
		p.nextToken()
		return &ast.ShowStatement{Token: tok, Kind: ast.ShowStats}
	case token.DATABASES:
		p.nextToken()
		return &ast.ShowStatement{Token: tok, Kind: ast.ShowDatabases}
	case token.INDEXES:
		p.nextToken()
		stmt := &ast.ShowStatement{Token: tok, Kind: ast.ShowIndexes}
		if p.peekTokenIs(token.FROM) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			stmt.Table = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
		}
		return stmt
	default:
		p.errorf("line %d: expected TABLES, INDEXES, STATS, or DATABASES after SHOW, got %s", p.peekToken.Line, p.peekToken.Type)
		return nil
	}
}

func (p *Parser) parseExplain() ast.Statement {
	tok := p.curToken
	p.nextToken()
	inner := p.ParseStatement()
	if inner == nil {
		return nil
	}
	return &ast.ExplainStatement{Token: tok, Inner: inner}
}

func (p *Parser) parseVacuum() ast.Statement {
	tok := p.curToken
	stmt := &ast.VacuumStatement{Token: tok}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		stmt.Table = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	return stmt
}

func (p *Parser) parseAnalyze() ast.Statement {
	tok := p.curToken
	stmt := &ast.AnalyzeStatement{Token: tok}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		stmt.Table = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	return stmt
}
