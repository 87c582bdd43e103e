package selector

import (
	"fmt"
	"strings"
)

// ParseError describes a malformed selector. It names the offending
// substring and its offset so content authors can fix the text; parsing
// never panics on bad input.
type ParseError struct {
	Input  string
	Pos    int
	Token  string
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("selector %q: %s at offset %d (near %q)", e.Input, e.Detail, e.Pos, e.Token)
}

// Parse converts selector text into an unregistered AST.
//
// Grammar:
//
//	selector := chain (',' chain)*
//	chain    := atom (':' atom)*
//	atom     := '@'ident | '#'ident | '!enter' | '!exit'
//	ident    := [A-Za-z0-9_-]+
//
// ':' binds tighter than ','. Whitespace around tokens is ignored. Tag
// idents are normalized to lowercase; ids keep their case. The returned
// AST carries no match state; register it through a Registry to evaluate.
func Parse(text string) (*Node, error) {
	p := &parser{input: text}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf(p.pos, "", "empty selector")
	}
	if p.peek() == ',' {
		return nil, p.errorf(p.pos, ",", "leading separator")
	}

	var chains []*Node
	for {
		chain, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		chains = append(chains, chain)

		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() != ',' {
			return nil, p.errorf(p.pos, string(p.peek()), "expected ',' between chains")
		}
		p.pos++
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf(p.pos, ",", "trailing separator")
		}
		if p.peek() == ',' {
			return nil, p.errorf(p.pos, ",", "empty selector chain")
		}
	}

	if len(chains) == 1 {
		return chains[0], nil
	}
	return &Node{kind: KindUnion, children: chains}, nil
}

// parser scans the input by index; identifiers are substrings of the input,
// never rebuilt character by character.
type parser struct {
	input string
	pos   int
}

func (p *parser) eof() bool  { return p.pos >= len(p.input) }
func (p *parser) peek() byte { return p.input[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(pos int, token, detail string) error {
	return &ParseError{Input: p.input, Pos: pos, Token: token, Detail: detail}
}

// parseChain parses atom (':' atom)* and links each atom's prior to the
// atom that follows it in the text, so the chain head's prior chain holds
// the refinements.
func (p *parser) parseChain() (*Node, error) {
	var atoms []*Node
	for {
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, atom)

		p.skipSpace()
		if p.eof() || p.peek() != ':' {
			break
		}
		p.pos++
		p.skipSpace()
		if p.eof() || p.peek() == ',' {
			return nil, p.errorf(p.pos, ":", "empty atom after ':'")
		}
	}
	for i := 0; i < len(atoms)-1; i++ {
		atoms[i].prior = atoms[i+1]
	}
	return atoms[0], nil
}

func (p *parser) parseAtom() (*Node, error) {
	start := p.pos
	switch c := p.peek(); c {
	case '@', '#':
		p.pos++
		if !p.eof() {
			if n := p.peek(); n == '@' || n == '#' || n == '!' {
				return nil, p.errorf(start, p.input[start:p.pos+1], "double prefix")
			}
		}
		ident := p.scanIdent()
		if ident == "" {
			return nil, p.errorf(start, string(c), "empty identifier")
		}
		if c == '@' {
			return &Node{kind: KindById, key: ident}, nil
		}
		return &Node{kind: KindByTag, key: strings.ToLower(ident)}, nil
	case '!':
		p.pos++
		word := p.scanIdent()
		switch word {
		case "enter":
			return &Node{kind: KindCollisionEnter}, nil
		case "exit":
			return &Node{kind: KindCollisionExit}, nil
		case "":
			return nil, p.errorf(start, "!", "empty event name")
		default:
			return nil, p.errorf(start, p.input[start:p.pos], "unknown atom word")
		}
	default:
		return nil, p.errorf(p.pos, string(c), "expected '@', '#' or '!'")
	}
}

func (p *parser) scanIdent() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}
