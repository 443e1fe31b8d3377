// Package errors provides the structured, actionable messages the stitch
// command prints.
//
// Each problem the CLI can report has a code (e.g. "S101") that maps to a
// short message, a longer explanation and a documentation link. Errors can
// carry the template location they refer to, a hint and a wrapped cause.
//
// # Categories
//
//   - config: stitch.json problems
//   - template: template files that fail to load or parse
//   - tree: component trees that fail validation
//   - render: rendering passes that fail outright
//   - server: listener and transport failures
//
// # Usage
//
//	err := errors.New("S201").
//	    WithLocation("cards/product.html", 3, 0).
//	    WithSuggestion("Close the {{if}} action with {{end}}")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR S201: Template failed to parse
//	//
//	//   cards/product.html:3
//	//
//	//   Hint: Close the {{if}} action with {{end}}
package errors
