package iface

import (
	"encoding/hex"
	"fmt"

	"github.com/portal-pit/pit/internal/ordered"
)

// ParseError reports the first unmatched token encountered while parsing;
// per spec §4.1 no partial interface is ever returned.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("iface: parse error at offset %d: %s", e.Pos, e.Msg)
}

// Parse parses text against the interface grammar (spec §4.1), returning a
// ParseError at the first unmatched token on failure.
func Parse(text string) (Interface, error) {
	p := &parser{s: text}
	iface, err := p.parseInterface()
	if err != nil {
		return Interface{}, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return Interface{}, p.errorf("unexpected trailing input")
	}
	return iface, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *parser) peekByte() (byte, bool) {
	if p.eof() {
		return 0, false
	}
	return p.s[p.pos], true
}

func (p *parser) consumeByte(b byte) bool {
	p.skipSpace()
	if !p.eof() && p.s[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectByte(b byte) error {
	if !p.consumeByte(b) {
		return p.errorf("expected %q", b)
	}
	return nil
}

func (p *parser) consumePrefix(s string) bool {
	p.skipSpace()
	if p.pos+len(s) <= len(p.s) && p.s[p.pos:p.pos+len(s)] == s {
		p.pos += len(s)
		return true
	}
	return false
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// parseIdent parses one ASCII identifier: start char, then ident-continue
// chars.
func (p *parser) parseIdent() (string, error) {
	p.skipSpace()
	start := p.pos
	if p.eof() || !isIdentStart(p.s[p.pos]) {
		return "", p.errorf("expected identifier")
	}
	p.pos++
	for !p.eof() && isIdentCont(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos], nil
}

// parseBalanced parses the `balanced` production: any run of characters in
// which `[` and `]` are balanced, tracked by a running depth counter (spec
// §4.1). The attr's own closing `]` (at depth 0) is left unconsumed.
func (p *parser) parseBalanced() string {
	start := p.pos
	depth := 0
	for !p.eof() {
		switch p.s[p.pos] {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return p.s[start:p.pos]
			}
			depth--
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

// parseAttr parses one `attr := '[' ident '=' balanced ']'`.
func (p *parser) parseAttr() (Attr, error) {
	if err := p.expectByte('['); err != nil {
		return Attr{}, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return Attr{}, err
	}
	if err := p.expectByte('='); err != nil {
		return Attr{}, err
	}
	value := p.parseBalanced()
	if err := p.expectByte(']'); err != nil {
		return Attr{}, err
	}
	return Attr{Name: name, Value: value}, nil
}

// parseAttrs parses zero or more attrs, greedily.
func (p *parser) parseAttrs() (Attrs, error) {
	var pairs []Attr
	for {
		p.skipSpace()
		b, ok := p.peekByte()
		if !ok || b != '[' {
			break
		}
		a, err := p.parseAttr()
		if err != nil {
			return Attrs{}, err
		}
		pairs = append(pairs, a)
	}
	return NewAttrs(pairs), nil
}

// parseResourceType parses the resource production's type alternative:
// `64-hex | 'this' | ε`.
func (p *parser) parseResourceType() (ResourceType, error) {
	if p.consumePrefix("this") {
		return ResourceType{Kind: ResourceThis}, nil
	}
	p.skipSpace()
	if p.pos+64 <= len(p.s) {
		candidate := p.s[p.pos : p.pos+64]
		allHex := true
		for i := 0; i < 64; i++ {
			if !isHex(candidate[i]) {
				allHex = false
				break
			}
		}
		if allHex {
			var d Digest
			b, err := hex.DecodeString(candidate)
			if err != nil {
				return ResourceType{}, p.errorf("invalid hex digest: %v", err)
			}
			copy(d[:], b)
			p.pos += 64
			return ResourceType{Kind: ResourceDigest, Digest: d}, nil
		}
	}
	return ResourceType{Kind: ResourceNone}, nil
}

// parseArg parses one `arg`.
func (p *parser) parseArg() (ArgKind, error) {
	attrs, err := p.parseAttrs()
	if err != nil {
		return ArgKind{}, err
	}
	if attrs.Len() > 0 {
		// Only the resource alternative carries leading attrs.
		return p.parseResourceArg(attrs)
	}
	p.skipSpace()
	switch {
	case p.consumePrefix("I32"):
		return I32Arg(), nil
	case p.consumePrefix("I64"):
		return I64Arg(), nil
	case p.consumePrefix("F32"):
		return F32Arg(), nil
	case p.consumePrefix("F64"):
		return F64Arg(), nil
	case p.peekIsByte('R'):
		return p.parseResourceArg(Attrs{})
	default:
		return ArgKind{}, p.errorf("expected an argument kind")
	}
}

func (p *parser) peekIsByte(b byte) bool {
	p.skipSpace()
	c, ok := p.peekByte()
	return ok && c == b
}

func (p *parser) parseResourceArg(attrs Attrs) (ArgKind, error) {
	if err := p.expectByte('R'); err != nil {
		return ArgKind{}, err
	}
	ty, err := p.parseResourceType()
	if err != nil {
		return ArgKind{}, err
	}
	nullable := p.consumeByte('n')
	// '&' absence means ownership transfer (Take = true); presence clears it.
	take := !p.consumeByte('&')
	return ResourceArg(ty, nullable, take, attrs), nil
}

// parseArgs parses `args := (arg (',' arg)*)?`.
func (p *parser) parseArgs() ([]ArgKind, error) {
	p.skipSpace()
	if p.peekIsByte(')') {
		return nil, nil
	}
	var args []ArgKind
	for {
		a, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.consumeByte(',') {
			return args, nil
		}
	}
}

// parseSignature parses `sig := attrs '(' args ')' '->' '(' args ')'`.
func (p *parser) parseSignature() (Signature, error) {
	attrs, err := p.parseAttrs()
	if err != nil {
		return Signature{}, err
	}
	if err := p.expectByte('('); err != nil {
		return Signature{}, err
	}
	params, err := p.parseArgs()
	if err != nil {
		return Signature{}, err
	}
	if err := p.expectByte(')'); err != nil {
		return Signature{}, err
	}
	if !p.consumePrefix("->") {
		return Signature{}, p.errorf("expected '->'")
	}
	if err := p.expectByte('('); err != nil {
		return Signature{}, err
	}
	results, err := p.parseArgs()
	if err != nil {
		return Signature{}, err
	}
	if err := p.expectByte(')'); err != nil {
		return Signature{}, err
	}
	return Signature{Annotations: attrs, Params: params, Results: results}, nil
}

// parseMethod parses `method := ident sig`.
func (p *parser) parseMethod() (string, Signature, error) {
	name, err := p.parseIdent()
	if err != nil {
		return "", Signature{}, err
	}
	sig, err := p.parseSignature()
	if err != nil {
		return "", Signature{}, err
	}
	return name, sig, nil
}

// parseInterface parses `interface := attrs '{' (method (';' method)*)? '}'`.
func (p *parser) parseInterface() (Interface, error) {
	attrs, err := p.parseAttrs()
	if err != nil {
		return Interface{}, err
	}
	if err := p.expectByte('{'); err != nil {
		return Interface{}, err
	}
	var methods ordered.Map[string, Signature]
	if !p.peekIsByte('}') {
		for {
			name, sig, err := p.parseMethod()
			if err != nil {
				return Interface{}, err
			}
			methods.Set(name, sig)
			if !p.consumeByte(';') {
				break
			}
		}
	}
	if err := p.expectByte('}'); err != nil {
		return Interface{}, err
	}
	return Interface{Annotations: attrs, Methods: methods}, nil
}
