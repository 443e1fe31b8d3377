package engine

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/stitch/pkg/component"
)

// fallback returns the markup that replaces a failed component.
//
// The document and head singletons always fall back to nothing so that a
// broken page shell never leaks diagnostics. Other components render a
// diagnostic block in development and their ErrorTemplate in release.
func (p *Pass) fallback(c *component.Context, inv invocation, err error) (markup string) {
	if inv.singleton {
		return ""
	}
	if !p.engine.config.Release {
		return diagnostic(inv.child.Name, c.UserAgent(), p.engine.config.Now(), err)
	}

	tmpl := inv.child.Component.ErrorTemplate
	if tmpl == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			c.Logger().Error("error template panicked", "panic", r)
			markup = ""
		}
	}()
	return tmpl(c, err)
}

// diagnostic renders the development error block.
func diagnostic(name, userAgent string, now time.Time, err error) string {
	var b strings.Builder
	b.WriteString(`<div class="stitch-error" data-component="`)
	b.WriteString(html.EscapeString(name))
	b.WriteString(`">`)
	b.WriteString(`<p class="stitch-error-title"><strong>`)
	b.WriteString(html.EscapeString(errorName(err)))
	b.WriteString(`</strong> in &lt;`)
	b.WriteString(html.EscapeString(name))
	b.WriteString(`&gt;: `)
	b.WriteString(html.EscapeString(rootMessage(err)))
	b.WriteString(`</p>`)
	b.WriteString(`<p class="stitch-error-meta">`)
	b.WriteString(html.EscapeString(now.UTC().Format(time.RFC3339)))
	if userAgent != "" {
		b.WriteString(` &middot; `)
		b.WriteString(html.EscapeString(userAgent))
	}
	b.WriteString(`</p>`)
	b.WriteString(`<pre class="stitch-error-stack">`)
	b.WriteString(html.EscapeString(fmt.Sprintf("%+v", err)))
	b.WriteString(`</pre></div>`)
	return b.String()
}

// errorName names the innermost error: its Name method when it has one,
// its type otherwise.
func errorName(err error) string {
	err = innermost(err)
	if n, ok := err.(interface{ Name() string }); ok {
		return n.Name()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

func rootMessage(err error) string {
	return innermost(err).Error()
}

func innermost(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		next := u.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}
