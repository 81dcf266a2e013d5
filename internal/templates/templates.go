// Package templates renders notification messages from embedded
// html/template variants named <type>.<locale>.html. Rendering is pure:
// identical inputs always yield identical output.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
)

//go:embed files/*.html
var files embed.FS

const layoutFile = "files/layout.html"

// RenderedMessage is an immutable rendered notification.
type RenderedMessage struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer is the render contract consumed by the dispatch pipeline.
type Renderer interface {
	Render(kind string, locale ldomain.Locale, data any) (RenderedMessage, error)
}

// BaseLocale is the locale every kind is authored in. Operational kinds
// exist only in this locale.
const BaseLocale ldomain.Locale = "sv"

// internalKinds are read by staff, never by customers, so they need no
// translation.
var internalKinds = map[string]bool{KindOrderOps: true, KindApplicationOps: true}

// Provider holds the parsed variants.
type Provider struct {
	variants map[string]*template.Template
	def      ldomain.Locale
	strip    *bluemonday.Policy
}

var _ Renderer = (*Provider)(nil)

// New parses every embedded variant. def is the fallback locale; it must
// have a variant for every customer-facing kind.
func New(def ldomain.Locale) (*Provider, error) {
	names, err := fs.Glob(files, "files/*.*.html")
	if err != nil {
		return nil, err
	}
	p := &Provider{variants: make(map[string]*template.Template, len(names)), def: def, strip: bluemonday.StrictPolicy()}
	kinds := map[string]bool{}
	for _, name := range names {
		key := strings.TrimSuffix(strings.TrimPrefix(name, "files/"), ".html")
		t, err := template.New(key).Funcs(funcs).ParseFS(files, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", key, err)
		}
		for _, block := range []string{"subject", "body", "lang", "footer"} {
			if t.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s: missing %q block", key, block)
			}
		}
		p.variants[key] = t
		kind, _, _ := strings.Cut(key, ".")
		kinds[kind] = true
	}
	for kind := range kinds {
		if !p.Has(kind, BaseLocale) {
			return nil, fmt.Errorf("template %s: no %s variant", kind, BaseLocale)
		}
		if !internalKinds[kind] && !p.Has(kind, def) {
			return nil, fmt.Errorf("default locale %q has no variant for %s", def, kind)
		}
	}
	return p, nil
}

// Has reports whether kind has a variant for locale.
func (p *Provider) Has(kind string, locale ldomain.Locale) bool {
	_, ok := p.variants[kind+"."+string(locale)]
	return ok
}

// Render executes the variant for (kind, locale). A missing locale falls
// back to the default locale, then to BaseLocale.
func (p *Provider) Render(kind string, locale ldomain.Locale, data any) (RenderedMessage, error) {
	var t *template.Template
	for _, l := range []ldomain.Locale{locale, p.def, BaseLocale} {
		if v, ok := p.variants[kind+"."+string(l)]; ok {
			t = v
			break
		}
	}
	if t == nil {
		return RenderedMessage{}, fmt.Errorf("no template for %q", kind)
	}
	var subj, body bytes.Buffer
	if err := t.ExecuteTemplate(&subj, "subject", data); err != nil {
		return RenderedMessage{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := t.ExecuteTemplate(&body, "layout", data); err != nil {
		return RenderedMessage{}, fmt.Errorf("render %s body: %w", kind, err)
	}
	out := body.String()
	return RenderedMessage{
		Subject: strings.TrimSpace(html.UnescapeString(subj.String())),
		HTML:    out,
		Text:    p.ToText(out),
	}, nil
}

var (
	blankRuns  = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
	blockBreak = regexp.MustCompile(`(?i)<(br|/p|/h[1-6]|/li|/tr|/div|/table)\s*/?>`)
)

// ToText derives a plain-text alternative from an HTML body.
func (p *Provider) ToText(h string) string {
	h = blockBreak.ReplaceAllString(h, "$0\n")
	if i := strings.Index(strings.ToLower(h), "<body"); i >= 0 {
		h = h[i:]
	}
	s := html.UnescapeString(p.strip.Sanitize(h))
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(l, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankRuns.ReplaceAllString(s, "\n\n"))
}
