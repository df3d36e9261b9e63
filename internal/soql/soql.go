// Package soql parses the subset of SOQL the sandbox query endpoint
// understands: a flat SELECT over one sobject with AND-joined comparisons,
// an optional ORDER BY on one field, and an optional LIMIT.
package soql

import (
	"fmt"
	"strings"
	"unicode"
)

// Condition is one comparison in the WHERE clause.
type Condition struct {
	Field  string
	Op     string // "=", "!=", "LIKE"
	Value  string
	IsNull bool // value was the NULL literal
}

// Order is the ORDER BY clause.
type Order struct {
	Field      string
	Descending bool
}

// Query is a parsed SOQL statement.
type Query struct {
	Fields   []string
	SObject  string
	Where    []Condition
	OrderBy  *Order
	Limit    int
	HasLimit bool // distinguishes LIMIT 0 from no LIMIT clause
}

// ParseError reports where and why parsing failed. The query endpoint maps
// it to MALFORMED_QUERY.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

func errf(format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// Parse parses a SOQL statement.
func Parse(input string) (*Query, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	q := &Query{}

	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	for {
		field, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		q.Fields = append(q.Fields, field)
		if !p.accept(",") {
			break
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	sobject, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	q.SObject = sobject

	if p.acceptKeyword("WHERE") {
		for {
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			q.Where = append(q.Where, cond)
			if !p.acceptKeyword("AND") {
				break
			}
		}
	}

	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		field, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		q.OrderBy = &Order{Field: field}
		if p.acceptKeyword("DESC") {
			q.OrderBy.Descending = true
		} else {
			p.acceptKeyword("ASC")
		}
	}

	if p.acceptKeyword("LIMIT") {
		tok, ok := p.next()
		if !ok || tok.kind != tokNumber {
			return nil, errf("expected number after LIMIT")
		}
		n := 0
		for _, c := range tok.text {
			if !unicode.IsDigit(c) {
				return nil, errf("invalid LIMIT value %q", tok.text)
			}
			n = n*10 + int(c-'0')
		}
		// LIMIT 0 is valid and returns no rows.
		q.Limit = n
		q.HasLimit = true
	}

	if tok, ok := p.peek(); ok {
		return nil, errf("unexpected input at %q", tok.text)
	}

	return q, nil
}

func (p *parser) parseCondition() (Condition, error) {
	field, err := p.expectIdent()
	if err != nil {
		return Condition{}, err
	}

	op, ok := p.next()
	if !ok {
		return Condition{}, errf("expected operator after %q", field)
	}

	var cond Condition
	cond.Field = field
	switch {
	case op.kind == tokSymbol && op.text == "=":
		cond.Op = "="
	case op.kind == tokSymbol && op.text == "!=":
		cond.Op = "!="
	case op.kind == tokIdent && strings.EqualFold(op.text, "LIKE"):
		cond.Op = "LIKE"
	default:
		return Condition{}, errf("unsupported operator %q", op.text)
	}

	val, ok := p.next()
	if !ok {
		return Condition{}, errf("expected value after operator %q", cond.Op)
	}
	switch val.kind {
	case tokString, tokNumber:
		cond.Value = val.text
	case tokIdent:
		switch {
		case strings.EqualFold(val.text, "NULL"):
			cond.IsNull = true
		case strings.EqualFold(val.text, "TRUE"):
			cond.Value = "true"
		case strings.EqualFold(val.text, "FALSE"):
			cond.Value = "false"
		default:
			return Condition{}, errf("unexpected value %q", val.text)
		}
	default:
		return Condition{}, errf("unexpected value %q", val.text)
	}

	if cond.Op == "LIKE" && cond.IsNull {
		return Condition{}, errf("LIKE requires a string value")
	}

	return cond, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokString
	tokNumber
	tokSymbol
)

type token struct {
	kind tokKind
	text string
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) accept(symbol string) bool {
	tok, ok := p.peek()
	if ok && tok.kind == tokSymbol && tok.text == symbol {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	tok, ok := p.peek()
	if ok && tok.kind == tokIdent && strings.EqualFold(tok.text, kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return errf("expected %s", kw)
	}
	return nil
}

func (p *parser) expectIdent() (string, error) {
	tok, ok := p.next()
	if !ok || tok.kind != tokIdent {
		return "", errf("expected identifier")
	}
	return tok.text, nil
}

func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == ',':
			toks = append(toks, token{tokSymbol, ","})
			i++
		case c == '=':
			toks = append(toks, token{tokSymbol, "="})
			i++
		case c == '!':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, errf("unexpected character '!'")
			}
			toks = append(toks, token{tokSymbol, "!="})
			i += 2
		case c == '\'':
			i++
			var sb strings.Builder
			closed := false
			for i < len(input) {
				if input[i] == '\\' && i+1 < len(input) {
					sb.WriteByte(input[i+1])
					i += 2
					continue
				}
				if input[i] == '\'' {
					closed = true
					i++
					break
				}
				sb.WriteByte(input[i])
				i++
			}
			if !closed {
				return nil, errf("unterminated string literal")
			}
			toks = append(toks, token{tokString, sb.String()})
		case unicode.IsDigit(c) || c == '-':
			start := i
			i++
			for i < len(input) && (unicode.IsDigit(rune(input[i])) || input[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, input[start:i]})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(input) && (unicode.IsLetter(rune(input[i])) || unicode.IsDigit(rune(input[i])) || input[i] == '_') {
				i++
			}
			toks = append(toks, token{tokIdent, input[start:i]})
		default:
			return nil, errf("unexpected character %q", c)
		}
	}
	return toks, nil
}
