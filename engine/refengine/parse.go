package refengine

import (
	"fmt"
	"strconv"
	"strings"
)

// statement is the union of top-level forms this grammar accepts.
type statement interface{ isStatement() }

type importStmt struct{ url string }

func (importStmt) isStatement() {}

type ruleStmt struct {
	selector string
	decls    []rawDecl
}

func (ruleStmt) isStatement() {}

// logStmt is "@warn '...';", "@debug '...';", or "@deprecated '...';" — a
// directive that reports a diagnostic back through engine.Services.Log
// rather than contributing output.
type logStmt struct {
	keyword string
	message string
}

func (logStmt) isStatement() {}

type rawDecl struct {
	property string
	expr     string
}

// parse tokenizes and parses source into a sequence of top-level
// statements. The grammar is deliberately tiny:
//
//	stylesheet  = (import | log | rule)*
//	import      = "@import" string ";"
//	log         = ("@warn" | "@debug" | "@deprecated") string ";"
//	rule        = selector "{" decl* "}"
//	decl        = ident ":" expr ";"
//	expr        = term (("+" | "-") term)*
//	term        = number unit?
func parse(source string) ([]statement, error) {
	p := &parser{src: source}
	var stmts []statement
	for {
		p.skipSpace()
		if p.atEnd() {
			return stmts, nil
		}
		if p.peekString("@import") {
			st, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, st)
			continue
		}
		if keyword, ok := p.peekLogKeyword(); ok {
			st, err := p.parseLog(keyword)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, st)
			continue
		}
		st, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peekString(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) parseImport() (statement, error) {
	p.pos += len("@import")
	p.skipSpace()
	url, err := p.parseQuotedString()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.atEnd() || p.src[p.pos] != ';' {
		return nil, fmt.Errorf("expected ';' after @import")
	}
	p.pos++
	return importStmt{url: url}, nil
}

var logKeywords = []string{"@warn", "@debug", "@deprecated"}

func (p *parser) peekLogKeyword() (string, bool) {
	for _, kw := range logKeywords {
		if p.peekString(kw) {
			return kw, true
		}
	}
	return "", false
}

func (p *parser) parseLog(keyword string) (statement, error) {
	p.pos += len(keyword)
	p.skipSpace()
	msg, err := p.parseQuotedString()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.atEnd() || p.src[p.pos] != ';' {
		return nil, fmt.Errorf("expected ';' after %s", keyword)
	}
	p.pos++
	return logStmt{keyword: keyword, message: msg}, nil
}

func (p *parser) parseQuotedString() (string, error) {
	if p.atEnd() || (p.src[p.pos] != '\'' && p.src[p.pos] != '"') {
		return "", fmt.Errorf("expected a quoted string")
	}
	quote := p.src[p.pos]
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		p.pos++
	}
	if p.atEnd() {
		return "", fmt.Errorf("unterminated string literal")
	}
	s := p.src[start:p.pos]
	p.pos++
	return s, nil
}

func (p *parser) parseRule() (statement, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '{' {
		p.pos++
	}
	if p.atEnd() {
		return nil, fmt.Errorf("expected '{' to open a rule")
	}
	selector := strings.TrimSpace(p.src[start:p.pos])
	if selector == "" {
		return nil, fmt.Errorf("empty selector")
	}
	p.pos++ // consume '{'

	var decls []rawDecl
	for {
		p.skipSpace()
		if p.atEnd() {
			return nil, fmt.Errorf("unterminated rule %q", selector)
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return ruleStmt{selector: selector, decls: decls}, nil
		}
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
}

func (p *parser) parseDecl() (rawDecl, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ':' {
		p.pos++
	}
	if p.atEnd() {
		return rawDecl{}, fmt.Errorf("expected ':' in declaration")
	}
	property := strings.TrimSpace(p.src[start:p.pos])
	p.pos++ // consume ':'

	start = p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ';' && p.src[p.pos] != '}' {
		p.pos++
	}
	expr := strings.TrimSpace(p.src[start:p.pos])
	if p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	if property == "" || expr == "" {
		return rawDecl{}, fmt.Errorf("malformed declaration")
	}
	return rawDecl{property: property, expr: expr}, nil
}

////////////////////////////////////////////////////////////////////////////
// Expression evaluation
////////////////////////////////////////////////////////////////////////////

// value is the result of evaluating a declaration's expression: either a
// number (with an optional unit) or an opaque literal string passed
// through unchanged (e.g. a color keyword or quoted string).
type value struct {
	isNumber bool
	number   float64
	unit     string
	literal  string
}

func (v value) String() string {
	if !v.isNumber {
		return v.literal
	}
	return strconv.FormatFloat(v.number, 'g', -1, 64) + v.unit
}

// evalExpr evaluates a sum of number-with-unit terms separated by "+" or
// "-". Expressions that are not a numeric sum (e.g. "red" or "1px solid
// black") pass through as an opaque literal.
func evalExpr(expr string) (value, error) {
	toks, ok := tokenizeNumericExpr(expr)
	if !ok {
		return value{literal: expr}, nil
	}

	total := toks[0].number
	unit := toks[0].unit
	for i := 1; i < len(toks); i += 2 {
		op := toks[i]
		term := toks[i+1]
		if term.unit != "" && unit != "" && term.unit != unit {
			return value{}, fmt.Errorf("incompatible units: %q and %q", unit, term.unit)
		}
		if unit == "" {
			unit = term.unit
		}
		switch op.literal {
		case "+":
			total += term.number
		case "-":
			total -= term.number
		}
	}
	return value{isNumber: true, number: total, unit: unit}, nil
}

type numToken struct {
	number  float64
	unit    string
	literal string
}

// tokenizeNumericExpr splits expr into alternating number and "+"/"-"
// tokens. It returns ok=false for anything that isn't purely a numeric
// sum, in which case the caller treats expr as an opaque literal.
func tokenizeNumericExpr(expr string) ([]numToken, bool) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return nil, false
	}

	var toks []numToken
	wantNumber := true
	for _, f := range fields {
		if wantNumber {
			n, unit, ok := splitNumberUnit(f)
			if !ok {
				return nil, false
			}
			toks = append(toks, numToken{number: n, unit: unit})
			wantNumber = false
			continue
		}
		if f != "+" && f != "-" {
			return nil, false
		}
		toks = append(toks, numToken{literal: f})
		wantNumber = true
	}
	if wantNumber {
		// Trailing operator with no right-hand term.
		return nil, false
	}
	return toks, true
}

func splitNumberUnit(tok string) (number float64, unit string, ok bool) {
	i := 0
	for i < len(tok) && (isDigit(tok[i]) || tok[i] == '.' || (i == 0 && tok[i] == '-')) {
		i++
	}
	if i == 0 {
		return 0, "", false
	}
	n, err := strconv.ParseFloat(tok[:i], 64)
	if err != nil {
		return 0, "", false
	}
	return n, tok[i:], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

////////////////////////////////////////////////////////////////////////////
// Custom function calls
////////////////////////////////////////////////////////////////////////////

// callExpr is a minimal custom-function call embedded in a declaration's
// expression: "call(name, arg, ...)" addresses the function by name;
// "call#<id>(arg, ...)" addresses it by a numeric function id. Each
// arg is itself a number-with-unit term or an opaque literal, the same
// vocabulary evalExpr already understands.
type callExpr struct {
	name       *string
	functionID *uint32
	args       []string
}

func parseCallExpr(expr string) (callExpr, bool) {
	const prefix = "call"
	if !strings.HasPrefix(expr, prefix) {
		return callExpr{}, false
	}
	rest := strings.TrimSpace(expr[len(prefix):])

	var name *string
	var functionID *uint32
	if strings.HasPrefix(rest, "#") {
		rest = rest[1:]
		end := strings.IndexByte(rest, '(')
		if end < 0 {
			return callExpr{}, false
		}
		id, err := strconv.ParseUint(strings.TrimSpace(rest[:end]), 10, 32)
		if err != nil {
			return callExpr{}, false
		}
		id32 := uint32(id)
		functionID = &id32
		rest = rest[end:]
	}

	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return callExpr{}, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")

	if functionID == nil {
		parts := strings.SplitN(inner, ",", 2)
		n := strings.TrimSpace(parts[0])
		if n == "" {
			return callExpr{}, false
		}
		name = &n
		inner = ""
		if len(parts) == 2 {
			inner = parts[1]
		}
	}

	var args []string
	for _, a := range strings.Split(inner, ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}

	return callExpr{name: name, functionID: functionID, args: args}, true
}
