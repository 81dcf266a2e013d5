// Package domain holds the locale resolution contracts.
package domain

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a canonical base language code such as "sv" or "en".
type Locale string

// Canonicalize reduces a stored or configured language value to its base
// language ("sv-SE" -> "sv", "EN" -> "en"). Values that do not parse as a
// BCP 47 tag are rejected.
func Canonicalize(raw string) (Locale, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	if base.String() == "und" {
		return "", false
	}
	return Locale(base.String()), true
}

// Result is the optional outcome of one source lookup.
type Result struct {
	Locale Locale
	Found  bool
}

// Hit returns a found result.
func Hit(l Locale) Result { return Result{Locale: l, Found: true} }

// Miss is the not-found result.
var Miss = Result{}

// Source is one read-only record store holding preferred locales.
// Lookup returns Miss when the store has no usable value for identity; an
// error means the store could not be consulted.
type Source interface {
	Name() string
	Lookup(ctx context.Context, identity string) (Result, error)
}

// Resolver determines a recipient's preferred locale.
type Resolver interface {
	ResolvePreferredLocale(ctx context.Context, identity string) Locale
}
