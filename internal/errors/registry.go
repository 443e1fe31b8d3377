package errors

import "sort"

// DocBase is the documentation root error codes link to.
const DocBase = "https://stitch.vango.dev/docs/errors/"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]ErrorTemplate{
	// Configuration (S100-S199)
	"S101": {
		Category: CategoryConfig,
		Message:  "No stitch.json found",
		Detail:   "stitch looks for stitch.json in the working directory and its parents.",
	},
	"S102": {
		Category: CategoryConfig,
		Message:  "Invalid stitch.json",
		Detail:   "The configuration file could not be parsed as JSON.",
	},
	"S103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"S104": {
		Category: CategoryConfig,
		Message:  "No template source configured",
		Detail:   "Set templates.dir for a local directory or templates.s3.bucket for an S3 bucket.",
	},

	// Templates (S200-S299)
	"S201": {
		Category: CategoryTemplate,
		Message:  "Template failed to parse",
	},
	"S202": {
		Category: CategoryTemplate,
		Message:  "Template path is not a valid component name",
		Detail:   "Component names may only contain lowercase letters, digits, '-' and '_'. Directories become '-' separators.",
	},
	"S203": {
		Category: CategoryTemplate,
		Message:  "Template source could not be read",
	},

	// Component tree (S300-S399)
	"S301": {
		Category: CategoryTree,
		Message:  "Missing document component",
		Detail:   "Every tree needs a document component; with file templates that is document.html.",
	},
	"S302": {
		Category: CategoryTree,
		Message:  "Missing head component",
		Detail:   "Every tree needs a head component; with file templates that is head.html.",
	},
	"S303": {
		Category: CategoryTree,
		Message:  "Invalid component tree",
	},

	// Rendering (S400-S499)
	"S401": {
		Category: CategoryRender,
		Message:  "Render failed",
	},
	"S402": {
		Category: CategoryRender,
		Message:  "Render was redirected",
		Detail:   "A component requested a redirect, so no document was produced.",
	},
	"S403": {
		Category: CategoryRender,
		Message:  "Render was not found",
		Detail:   "A component requested not-found, so no document was produced.",
	},

	// Server (S500-S599)
	"S501": {
		Category: CategoryServer,
		Message:  "Server failed to start",
	},
	"S502": {
		Category: CategoryServer,
		Message:  "Server shutdown did not complete",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns every registered code in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func docURL(code string) string {
	return DocBase + code
}
