package mst

import (
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Expr = num | name | Call | Neg | Plus | Add | Sub | Mul | Div | Pow | '(' Expr ')' | '[' Expr ']' | '{' Expr '}'
// Call = name ArgList
// ArgList = '(' Expr [ ',' Expr ] ')' | '[' Expr [ ',' Expr ] ']' | '{' Expr [ ',' Expr ] '}'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr '×' Expr
// Div = Expr '/' Expr | Expr '÷' Expr
// Pow = Expr '^' Expr

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

type eofopt struct {
	c, s bool
	ws   string
}

// parsectx holds general data for parsing.
type parsectx struct {
	// wseof is a string containing the whitespace characters that trigger an
	// EOF token from the lexer.
	wseof string
	// ceof and seof indicate whether commas and semicolons, respectively, are
	// allowed at the end of an expression.
	ceof, seof bool
}

// StopOn tells the parser to treat a list of characters as ending the
// expression. Each rune must be a comma, semicolon, or whitespace codepoint.
// Whitespace does not end an expression where a term is expected, e.g. at the
// beginning of an expression or following an operator or bracket. Commas do
// not end expressions inside argument lists.
//
// StopOn overrides the effect of any previous StopOn in the parsing options.
// With no arguments, StopOn produces the default termination behavior, which
// is to parse to EOF.
func StopOn(chars ...rune) ParseOption {
	var o eofopt
	v := make([]rune, 0, len(chars))
	have := func(r rune) bool {
		for _, c := range v {
			if r == c {
				return true
			}
		}
		return false
	}
	for _, r := range chars {
		switch {
		case r == ',':
			o.c = true
		case r == ';':
			o.s = true
		case unicode.IsSpace(r):
			if have(r) {
				continue
			}
			v = append(v, r)
		default:
			panic("mst: cannot stop on " + strconv.QuoteRune(r))
		}
	}
	o.ws = string(v)
	return &o
}

func (o *eofopt) parseOption(p parsectx) parsectx {
	p.ceof = o.c
	p.seof = o.s
	p.wseof = o.ws
	return p
}

// Parse parses an expression tree. The given options are applied in order.
// Errors resulting from invalid input implement SyntaxError.
func Parse(src io.RuneScanner, opts ...ParseOption) (Tree, error) {
	scan := lex(src)
	var p parsectx
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	n, err := parseterm(scan, &p, exprprec, false)
	if err != nil {
		return nil, err
	}
	tok := scan.must()
	switch tok.kind {
	case tokenEOF:
	case tokenSep:
		switch {
		case p.ceof && tok.text == ",":
		case p.seof && tok.text == ";":
		default:
			return nil, itShouldNotHaveEndedThisWay(tok, -1)
		}
	default:
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	if n == nil {
		return nil, &EmptyExpressionError{Col: tok.pos, End: tok.text}
	}
	return n, nil
}

// ParseString is a shortcut to parse an expression from a string.
func ParseString(src string, opts ...ParseOption) (Tree, error) {
	return Parse(strings.NewReader(src), opts...)
}

// MustParse is like ParseString but panics if the expression cannot be
// parsed.
func MustParse(src string) Tree {
	t, err := ParseString(src)
	if err != nil {
		panic("mst: MustParse(" + strconv.Quote(src) + "): " + err.Error())
	}
	return t
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an error
// in contexts where empty subexpressions are illegal. inargs indicates that a
// comma separates arguments rather than ending the input.
func parseterm(scan *lexer, p *parsectx, until operator, inargs bool) (Tree, error) {
	n, err := parselhs(scan, p, inargs)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next(p.wseof)
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenOp:
			prec := binop(tok.text)
			if prec.op == "" {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, p, prec, inargs)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				end := scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = &Binary{Op: prec.op, Left: n, Right: rhs}
		case tokenNum, tokenIdent, tokenOpen:
			// Juxtaposition is not multiplication.
			return nil, &TokenError{Col: tok.pos, Token: tok.text}
		case tokenClose, tokenSep, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("mst: unknown token: " + tok.String())
		}
	}
}

// parselhs parses the first component of a term: a literal, a symbol, a call,
// a bracketed subexpression, or a unary operator applied to another lhs.
// Whitespace normally lexed as EOF is ignored.
func parselhs(scan *lexer, p *parsectx, inargs bool) (Tree, error) {
	tok, err := scan.next("")
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		return &Numeric{Text: tok.text}, nil
	case tokenIdent:
		return parseident(scan, p, tok)
	case tokenOp:
		op := unop(tok.text)
		if op == "" {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		// Unary operators bind tighter than any binary operator, so the
		// operand is just the next lhs: -x^2 is (-x)^2.
		x, err := parselhs(scan, p, inargs)
		if err != nil {
			return nil, err
		}
		if x == nil {
			end := scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return &Unary{Op: op, Operand: x}, nil
	case tokenOpen:
		match := rightbracket(tok.text)
		rhs, err := parseterm(scan, p, exprprec, false)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose || end.text != closebrackets[match] {
			return nil, itShouldNotHaveEndedThisWay(end, match)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return rhs, nil
	case tokenClose:
		// Let the caller decide what an empty term means here.
		scan.push(tok)
		return nil, nil
	case tokenSep:
		switch {
		case tok.text == "," && (inargs || p.ceof):
			scan.push(tok)
			return nil, nil
		case tok.text == ";" && p.seof:
			scan.push(tok)
			return nil, nil
		}
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		scan.push(tok)
		return nil, nil
	default:
		panic("mst: unknown token: " + tok.String())
	}
}

// parseident parses a symbol or, if the name is followed by a bracket, a call.
func parseident(scan *lexer, p *parsectx, name lexToken) (Tree, error) {
	// Respect whitespace EOF so that "x\n(y)" with StopOn('\n') is two
	// expressions rather than a call.
	tok, err := scan.next(p.wseof)
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenOpen {
		scan.push(tok)
		return &Symbolic{Name: name.text}, nil
	}
	match := rightbracket(tok.text)
	args, err := parsearglist(scan, p, tok.text)
	if err != nil {
		return nil, err
	}
	end := scan.must()
	if end.kind != tokenClose {
		panic("mst: parsearglist ended on " + end.String() + " instead of close bracket")
	}
	if end.text != closebrackets[match] {
		return nil, &BracketError{Col: end.pos, Left: tok.text, Right: end.text}
	}
	switch len(args) {
	case 1:
		return &Unary{Op: name.text, Operand: args[0]}, nil
	case 2:
		return &Binary{Op: name.text, Left: args[0], Right: args[1]}, nil
	default:
		return nil, &CallError{Col: tok.pos, Func: name.text, Len: len(args)}
	}
}

// parsearglist parses a bracketed list of zero or more args. The closing
// bracket is pushed.
func parsearglist(scan *lexer, p *parsectx, open string) ([]Tree, error) {
	var args []Tree
	for {
		rhs, err := parseterm(scan, p, exprprec, true)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			scan.push(end)
			if rhs == nil {
				// f() is a call with no arguments, but f(a,) is incomplete.
				if len(args) != 0 {
					return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, nil
			}
			return append(args, rhs), nil
		case tokenSep:
			if end.text != "," {
				return nil, &SeparatorError{Col: end.pos, Sep: end.text}
			}
			if rhs == nil {
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			args = append(args, rhs)
		case tokenEOF:
			return nil, &BracketError{Col: end.pos, Left: open, Right: ""}
		default:
			panic("mst: parseterm ended on non-end token " + end.String())
		}
	}
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	r, sz := utf8.DecodeRuneInString(left)
	k := strings.IndexRune(OpenBrackets, r)
	if k < 0 || sz != len(left) {
		panic("mst: invalid bracket " + strconv.Quote(left))
	}
	return k
}

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket index that the
// expression should have matched, or -1 if none.
func itShouldNotHaveEndedThisWay(tok lexToken, match int) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	case tokenSep:
		// Separator outside a call.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("mst: it really should not have ended this way: " + tok.String())
	}
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the operation name to use when this operator is selected.
	op string
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an empty op.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, OpNamePlus}
	case "-":
		return operator{1, false, OpNameMinus}
	case "*", "×":
		return operator{5, false, OpNameTimes}
	case "/", "÷":
		return operator{5, false, OpNameDiv}
	case "^":
		return operator{15, true, OpNamePow}
	default:
		return operator{}
	}
}

// unop gets the operation name of a unary operator, or the empty string if
// there is no such unary operator.
func unop(text string) string {
	switch text {
	case "+":
		return OpNamePlus
	case "-":
		return OpNameMinus
	default:
		return ""
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, ""}
