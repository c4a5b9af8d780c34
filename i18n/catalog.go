// Package i18n resolves translation keys for the listing views. Lookups never
// fail: a missing key resolves to the caller's fallback literal.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"crous-x/utils"
)

//go:embed locales/*.yaml
var bundled embed.FS

// Translator is the language source the views depend on.
type Translator interface {
	Lookup(lang, key, fallback string) string
}

// Catalog holds one flattened key/value bundle per language.
type Catalog struct {
	defaultLang string

	mu      sync.RWMutex
	bundles map[string]map[string]string
	langs   []string
	matcher language.Matcher
}

// Load reads the bundled catalogs for langs and merges <dir>/<lang>.yaml over
// them when dir is set. Files load concurrently. The returned Catalog is
// usable even when err is non-nil; err lists the files that could not be read.
func Load(dir string, langs []string, defaultLang string, logger *utils.Logger) (*Catalog, error) {
	if defaultLang == "" {
		defaultLang = "fr"
	}
	langs = withDefault(langs, defaultLang)

	var (
		mu      sync.Mutex
		bundles = make(map[string]map[string]string, len(langs))
		errs    []error
	)

	pool := utils.NewWorkerPool(4, 0)
	for _, lang := range langs {
		pool.Submit(func() {
			bundle, err := loadLanguage(dir, lang)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if len(bundle) > 0 {
				bundles[lang] = bundle
			}
		})
	}
	pool.Wait()

	c := NewCatalog(defaultLang, bundles)
	logger.Info("[i18n] Loaded %d languages (default %s)", len(c.Languages()), defaultLang)
	return c, errors.Join(errs...)
}

// NewCatalog builds a Catalog from already flattened bundles.
func NewCatalog(defaultLang string, bundles map[string]map[string]string) *Catalog {
	c := &Catalog{defaultLang: defaultLang, bundles: make(map[string]map[string]string)}
	for lang, b := range bundles {
		c.bundles[lang] = b
	}
	c.rebuildMatcher()
	return c
}

func (c *Catalog) rebuildMatcher() {
	langs := make([]string, 0, len(c.bundles)+1)
	langs = append(langs, c.defaultLang)
	for lang := range c.bundles {
		if lang != c.defaultLang {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs[1:])

	tags := make([]language.Tag, 0, len(langs))
	for _, l := range langs {
		tags = append(tags, language.Make(l))
	}
	c.langs = langs
	c.matcher = language.NewMatcher(tags)
}

// Lookup resolves key for lang, then for the default language, then returns
// fallback (or key itself when fallback is empty).
func (c *Catalog) Lookup(lang, key, fallback string) string {
	if c != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if v, ok := c.bundles[lang][key]; ok && v != "" {
			return v
		}
		if v, ok := c.bundles[c.defaultLang][key]; ok && v != "" {
			return v
		}
	}
	if fallback == "" {
		return key
	}
	return fallback
}

// Negotiate picks the best supported language for the candidates, which may
// be plain codes ("en") or Accept-Language headers. Empty candidates are
// skipped; with no match the default language wins.
func (c *Catalog) Negotiate(candidates ...string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(cand)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := c.matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return c.langs[idx]
	}
	return c.defaultLang
}

// Default returns the default language code.
func (c *Catalog) Default() string {
	return c.defaultLang
}

// Languages returns the supported language codes, default first.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.langs))
	copy(out, c.langs)
	return out
}

func loadLanguage(dir, lang string) (map[string]string, error) {
	bundle := make(map[string]string)

	if data, err := bundled.ReadFile("locales/" + lang + ".yaml"); err == nil {
		if err := decodeInto(bundle, data); err != nil {
			return bundle, fmt.Errorf("i18n: bundled %s: %w", lang, err)
		}
	}

	if dir == "" {
		return bundle, nil
	}
	path := filepath.Join(dir, lang+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return bundle, nil
	}
	if err != nil {
		return bundle, fmt.Errorf("i18n: read %s: %w", path, err)
	}
	if err := decodeInto(bundle, data); err != nil {
		return bundle, fmt.Errorf("i18n: parse %s: %w", path, err)
	}
	return bundle, nil
}

func decodeInto(bundle map[string]string, data []byte) error {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	flatten("", tree, bundle)
	return nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func withDefault(langs []string, def string) []string {
	out := []string{def}
	for _, l := range langs {
		if l != def {
			out = append(out, l)
		}
	}
	return out
}
