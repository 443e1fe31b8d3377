package filecomp

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/vango-dev/stitch/pkg/component"
)

// ErrInvalidName is returned for template paths that do not form a valid
// component name.
var ErrInvalidName = errors.Base("filecomp: invalid component name")

// Options configures Load.
type Options struct {
	// Funcs are extra template functions.
	Funcs template.FuncMap

	// ErrorTemplate is the path of a template rendered in place of failed
	// components in release mode. It is executed with an ErrorView and is
	// not registered as a component. Optional.
	ErrorTemplate string

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Load reads every template from src and returns the root descriptor of
// the resulting tree. All template problems are reported together.
func Load(ctx context.Context, src Source, opts Options) (*component.Descriptor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files, err := src.Files(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var (
		problems error
		shared   []component.Child
		special  = map[string]*component.Descriptor{}
		onError  *template.Template
	)
	if opts.ErrorTemplate != "" {
		if _, ok := files[opts.ErrorTemplate]; !ok {
			problems = multierr.Append(problems, errors.Errorf("error template %s: %w", opts.ErrorTemplate, fs.ErrNotExist))
		}
	}
	for _, p := range paths {
		if p == opts.ErrorTemplate {
			tmpl, err := template.New(p).Funcs(funcs(opts.Funcs)).Parse(files[p])
			if err != nil {
				problems = multierr.Append(problems, errors.Errorf("%s: %w", p, err))
			}
			onError = tmpl
			continue
		}
		name, err := ComponentName(p)
		if err != nil {
			problems = multierr.Append(problems, err)
			continue
		}
		tmpl, err := template.New(p).Funcs(funcs(opts.Funcs)).Parse(files[p])
		if err != nil {
			problems = multierr.Append(problems, errors.Errorf("%s: %w", p, err))
			continue
		}

		d := &component.Descriptor{Name: name, New: newFileComponent(tmpl)}
		if opts.ErrorTemplate != "" {
			d.ErrorTemplate = func(c *component.Context, err error) string {
				return renderError(onError, c, err, logger)
			}
		}
		switch name {
		case component.DocumentName, component.HeadName, component.BodyName:
			special[name] = d
		default:
			shared = append(shared, component.Child{Name: name, Component: d})
		}
		logger.Debug("loaded template", "path", p, "component", name)
	}
	if problems != nil {
		return nil, problems
	}

	root := component.NewRoot(special[component.DocumentName], special[component.HeadName], shared...)
	if body := special[component.BodyName]; body != nil {
		root.Children = append(root.Children, component.Child{Name: component.BodyName, Component: body})
	}
	for _, c := range root.Children {
		c.Component.Children = shared
	}
	return root, nil
}

// ComponentName maps a template path to its component name:
// "cards/Product.html" becomes "cards-product".
func ComponentName(p string) (string, error) {
	name := strings.TrimSuffix(p, path.Ext(p))
	name = strings.ToLower(strings.ReplaceAll(name, "/", "-"))
	if name == "" {
		return "", errors.WithDetails(ErrInvalidName, "path", p)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return "", errors.WithDetails(ErrInvalidName, "path", p)
		}
	}
	return name, nil
}

func funcs(extra template.FuncMap) template.FuncMap {
	m := template.FuncMap{
		"raw": func(s string) template.HTML { return template.HTML(s) },
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}
