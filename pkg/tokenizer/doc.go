// Package tokenizer provides the two finite-state scanners used by the
// stitch engine.
//
// The document tokenizer splits a raw HTML string into a lazy sequence of
// typed tokens. Only the constructs the engine cares about get their own
// kind:
//
//   - component tags: "<c-name ...>" and the special "<document>", "<head>"
//     and "<body>" elements
//   - slot placeholders: "<slot ...>"
//   - comments: "<!-- ... -->"
//
// Everything else is content. Content never spans a tag boundary, so a
// closing tag such as "</c-card>" is always a token of its own.
//
// The tag tokenizer takes a single tag string, from "<" to ">", and yields
// its name, attributes and self-closing marker.
//
// # Recovery
//
// Neither tokenizer panics or returns an error. Malformed fragments produce
// Illegal tokens; the document tokenizer recovers by emitting the offending
// character and resuming, so concatenating the Raw text of every token
// always reproduces the input exactly:
//
//	var b strings.Builder
//	for tok := range tokenizer.NewDocument(src).All() {
//	    b.WriteString(tok.Raw)
//	}
//	// b.String() == src
package tokenizer
