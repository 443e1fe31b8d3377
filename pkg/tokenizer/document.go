package tokenizer

import (
	"iter"
	"strings"
)

// ComponentPrefix is the reserved tag-name prefix marking component tags.
// A tag <c-card> refers to the child component named "card".
const ComponentPrefix = "c-"

// Special element names that are always scanned as component tags.
const (
	ElementDocument = "document"
	ElementHead     = "head"
	ElementBody     = "body"
	ElementSlot     = "slot"
)

const (
	componentSignature = "<" + ComponentPrefix
	slotSignature      = "<" + ElementSlot
	commentOpen        = "<!--"
	commentClose       = "-->"
)

var specialSignatures = [...]string{
	"<" + ElementDocument,
	"<" + ElementHead,
	"<" + ElementBody,
}

// State is a document tokenizer state.
type State uint8

const (
	StateInitial State = iota
	StateContent
	StateComponentTag
	StateComment
	StateSlotTag
	StateEnd
	StateIllegal
)

// Document scans an HTML string into tokens on demand.
//
// A Document is restartable through Reset but must not be shared between
// goroutines.
type Document struct {
	src   string
	start int
	pos   int
	state State
}

// NewDocument returns a tokenizer positioned at the start of src.
func NewDocument(src string) *Document {
	d := &Document{}
	d.Reset(src)
	return d
}

// Reset re-seeds the tokenizer with new input.
func (d *Document) Reset(src string) {
	d.src = src
	d.start = 0
	d.pos = 0
	d.state = StateInitial
}

// State returns the current scanner state.
func (d *Document) State() State {
	return d.state
}

// Next returns the next token. Once the input is exhausted it keeps
// returning a KindEnd token.
func (d *Document) Next() Token {
	for {
		switch d.state {
		case StateEnd:
			return Token{Kind: KindEnd}

		case StateInitial:
			if d.pos >= len(d.src) {
				d.state = StateEnd
				continue
			}
			d.start = d.pos
			d.state = d.classify()

		case StateContent:
			d.scanContent()
			d.state = StateInitial
			return d.emit(KindContent)

		case StateComment:
			end := strings.Index(d.src[d.pos+len(commentOpen):], commentClose)
			if end < 0 {
				d.state = StateIllegal
				continue
			}
			d.pos += len(commentOpen) + end + len(commentClose)
			d.state = StateInitial
			return d.emit(KindComment)

		case StateComponentTag, StateSlotTag:
			kind := KindComponentTag
			if d.state == StateSlotTag {
				kind = KindSlotTag
			}
			end := strings.IndexByte(d.src[d.pos:], '>')
			if end < 0 {
				d.state = StateIllegal
				continue
			}
			d.pos += end + 1
			d.state = StateInitial
			return d.emit(kind)

		case StateIllegal:
			// Every failing construct starts with '<', so one byte is one
			// character here.
			d.pos = d.start + 1
			d.state = StateInitial
			return d.emit(KindIllegal)
		}
	}
}

// All returns an iterator over the remaining tokens, excluding the end
// marker.
func (d *Document) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok := d.Next()
			if tok.Kind == KindEnd || !yield(tok) {
				return
			}
		}
	}
}

// Tokenize scans src completely and returns its tokens.
func Tokenize(src string) []Token {
	var tokens []Token
	for tok := range NewDocument(src).All() {
		tokens = append(tokens, tok)
	}
	return tokens
}

func (d *Document) emit(kind Kind) Token {
	tok := Token{Kind: kind, Raw: d.src[d.start:d.pos]}
	d.start = d.pos
	return tok
}

// classify peeks at the upcoming characters and picks the next state.
func (d *Document) classify() State {
	rest := d.src[d.pos:]
	if hasPrefixFold(rest, componentSignature) {
		return StateComponentTag
	}
	for _, sig := range specialSignatures {
		if hasSignature(rest, sig) {
			return StateComponentTag
		}
	}
	if hasSignature(rest, slotSignature) {
		return StateSlotTag
	}
	if strings.HasPrefix(rest, commentOpen) {
		return StateComment
	}
	return StateContent
}

// scanContent consumes at least one character and stops before the next
// '<' or right after a '>'.
func (d *Document) scanContent() {
	for {
		c := d.src[d.pos]
		d.pos++
		if c == '>' || d.pos >= len(d.src) || d.src[d.pos] == '<' {
			return
		}
	}
}

// hasSignature reports whether s starts with sig followed by a tag boundary.
func hasSignature(s, sig string) bool {
	return len(s) > len(sig) && hasPrefixFold(s, sig) && isBoundary(s[len(sig)])
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isBoundary(c byte) bool {
	return isSpace(c) || c == '>' || c == '/'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
