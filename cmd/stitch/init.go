package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/stitch/internal/config"
	"github.com/vango-dev/stitch/internal/errors"
)

// starter is the site init writes, by path relative to the templates
// directory.
var starter = map[string]string{
	"document.html": `<!DOCTYPE html>
<html>
<head></head>
<body>
  <c-greeting name="world">
    <p>Edit templates/greeting.html to change this page.</p>
  </c-greeting>
</body>
</html>
`,
	"head.html": `<meta charset="utf-8">
<title>stitch</title>
`,
	"greeting.html": `<h1>Hello, {{.Attr "name"}}!</h1>
<slot><p>Nothing to add.</p></slot>
`,
	"_error.html": `<p class="unavailable">{{.Name}} is unavailable right now.</p>
`,
}

func initCmd() *cobra.Command {
	var yaml bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a configuration and starter templates",
		Long: `Create stitch.json (or stitch.yaml) and a starter set of
templates in dir, which defaults to the current directory.

Examples:
  stitch init
  stitch init my-site --yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, yaml)
		},
	}

	cmd.Flags().BoolVar(&yaml, "yaml", false, "Write stitch.yaml instead of stitch.json")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, yaml bool) error {
	if config.Exists(dir) {
		return errors.Newf(errors.CategoryCLI, "%s already has a configuration file", dir).
			WithSuggestion("Edit the existing file or choose another directory")
	}

	cfg := config.New()
	cfg.ErrorTemplate = "_error.html"
	name := config.JSONFileName
	if yaml {
		name = config.YAMLFileName
	}

	templates := filepath.Join(dir, cfg.Templates.Dir)
	if err := os.MkdirAll(templates, 0o755); err != nil {
		return errors.Newf(errors.CategoryCLI, "create %s", templates).Wrap(err)
	}
	for file, body := range starter {
		if err := os.WriteFile(filepath.Join(templates, file), []byte(body), 0o644); err != nil {
			return errors.Newf(errors.CategoryCLI, "write %s", file).Wrap(err)
		}
	}
	if err := cfg.SaveTo(filepath.Join(dir, name)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	success(out, "Created %s", filepath.Join(dir, name))
	info(out, "Templates are in %s", templates)
	info(out, "Run 'stitch serve' to start the server")
	return nil
}
