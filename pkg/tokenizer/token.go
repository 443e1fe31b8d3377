package tokenizer

import "fmt"

// Kind identifies the type of a document token.
type Kind uint8

const (
	// KindContent is a run of text or markup the engine copies verbatim.
	KindContent Kind = iota

	// KindComponentTag is an opening component tag, e.g. <c-card id="a">.
	KindComponentTag

	// KindComment is a complete <!-- ... --> comment.
	KindComment

	// KindSlotTag is an opening slot placeholder tag.
	KindSlotTag

	// KindIllegal is a single character where a construct failed to scan.
	KindIllegal

	// KindEnd marks the end of input. Its Raw text is always empty.
	KindEnd
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindContent:
		return "Content"
	case KindComponentTag:
		return "ComponentTag"
	case KindComment:
		return "Comment"
	case KindSlotTag:
		return "SlotTag"
	case KindIllegal:
		return "Illegal"
	case KindEnd:
		return "End"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Token is a typed slice of the input.
type Token struct {
	Kind Kind
	Raw  string
}

// IsMarker reports whether the engine must inspect the token instead of
// copying it to the output.
func (t Token) IsMarker() bool {
	return t.Kind == KindComponentTag || t.Kind == KindSlotTag
}

// String implements fmt.Stringer for debugging.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Raw)
}
