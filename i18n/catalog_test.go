package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crous-x/utils"
)

func TestLoadBundled(t *testing.T) {
	c, err := Load("", []string{"fr", "en"}, "fr", utils.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"fr", "en"}, c.Languages())
	assert.Equal(t, "Appartement", c.Lookup("fr", "type.Apartment", "Apartment"))
	assert.Equal(t, "Shared room", c.Lookup("en", "type.Shared Room", "Shared Room"))
	assert.Equal(t, "Rent", c.Lookup("en", "labels.price", "Price"))
}

func TestLookupFallbacks(t *testing.T) {
	c := NewCatalog("fr", map[string]map[string]string{
		"fr": {"labels.price": "Loyer", "labels.size": "Surface"},
		"en": {"labels.price": "Rent"},
	})

	assert.Equal(t, "Rent", c.Lookup("en", "labels.price", "Price"))
	assert.Equal(t, "Surface", c.Lookup("en", "labels.size", "Size"), "missing key falls back to default language")
	assert.Equal(t, "Loyer", c.Lookup("de", "labels.price", "Price"), "unknown language uses default language")
	assert.Equal(t, "Rating", c.Lookup("en", "labels.rating", "Rating"))
	assert.Equal(t, "labels.rating", c.Lookup("en", "labels.rating", ""))

	var nilCatalog *Catalog
	assert.Equal(t, "Price", nilCatalog.Lookup("en", "labels.price", "Price"))
}

func TestNegotiate(t *testing.T) {
	c := NewCatalog("fr", map[string]map[string]string{
		"fr": {"k": "v"},
		"en": {"k": "v"},
	})

	tests := []struct {
		candidates []string
		want       string
	}{
		{[]string{"en"}, "en"},
		{[]string{"", "en-GB,en;q=0.9"}, "en"},
		{[]string{"de-DE,de;q=0.9"}, "fr"},
		{[]string{"not a tag!!"}, "fr"},
		{nil, "fr"},
		{[]string{"de", "en-US"}, "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Negotiate(tt.candidates...), "candidates %v", tt.candidates)
	}
}

func TestLoadOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"),
		[]byte("labels:\n  price: Monthly rent\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "es.yaml"),
		[]byte("labels:\n  price: Alquiler\n"), 0o644))

	c, err := Load(dir, []string{"en", "es"}, "fr", utils.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "Monthly rent", c.Lookup("en", "labels.price", ""))
	assert.Equal(t, "Size", c.Lookup("en", "labels.size", ""), "bundled keys survive the override")
	assert.Equal(t, "Alquiler", c.Lookup("es", "labels.price", ""))
	assert.Contains(t, c.Languages(), "es")
}

func TestLoadReportsMalformedOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("labels: [unclosed"), 0o644))

	c, err := Load(dir, []string{"en"}, "fr", utils.NewTestLogger(t))
	assert.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Rent", c.Lookup("en", "labels.price", ""), "bundled catalog still usable")
}
