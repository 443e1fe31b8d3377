package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/stitch/internal/errors"
	"github.com/vango-dev/stitch/pkg/engine"
	"github.com/vango-dev/stitch/pkg/finalize"
	"github.com/vango-dev/stitch/pkg/routing"
)

func renderCmd(flags *globalFlags) *cobra.Command {
	var (
		path      string
		cookies   []string
		userAgent string
		headers   bool
		release   bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one document to stdout",
		Long: `Render the document for a path without starting a server.

Redirects and not-found results are reported as errors.

Examples:
  stitch render --path=/products/42
  stitch render --cookie session=abc --headers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			if release {
				cfg.Release = true
			}
			logger := flags.logger(cmd.ErrOrStderr())

			root, err := loadTree(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			rec := routing.NewRecorder()
			rec.URLPath = path
			rec.Agent = userAgent
			for _, c := range cookies {
				name, value, ok := strings.Cut(c, "=")
				if !ok {
					return errors.Newf(errors.CategoryCLI, "cookie %q is not name=value", c)
				}
				rec.RequestCookies[name] = value
			}

			eng := engine.New(root, appConfig(cfg, logger).Engine)
			outcome, err := eng.Buffer(cmd.Context(), rec)
			if err != nil {
				return errors.New("S401").Wrap(err)
			}
			switch outcome {
			case finalize.OutcomeRedirect:
				return errors.New("S402").WithDetail("Redirected to " + rec.Header().Get("Location"))
			case finalize.OutcomeNotFound:
				return errors.New("S403")
			}

			out := cmd.OutOrStdout()
			if headers {
				fmt.Fprintf(out, "%d\n", rec.Status())
				if err := rec.Header().Write(out); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, rec.Body())
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "/", "URL path of the page")
	cmd.Flags().StringArrayVar(&cookies, "cookie", nil, "Request cookie as name=value (repeatable)")
	cmd.Flags().StringVar(&userAgent, "user-agent", "stitch-cli/"+version, "User-Agent seen by components")
	cmd.Flags().BoolVar(&headers, "headers", false, "Print status and headers before the body")
	cmd.Flags().BoolVar(&release, "release", false, "Hide error details from rendered output")

	return cmd
}
