package view

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"crous-x/i18n"
	"crous-x/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// SortOption is one sort button.
type SortOption struct {
	Key    models.SortKey
	Label  string
	Active bool
}

// PageData is the model behind the listings page.
type PageData struct {
	Snapshot       models.ViewSnapshot
	Labels         map[string]string
	Languages      []string
	SortOptions    []SortOption
	SliderMaxPrice int
	SliderMaxSize  int
	MapState       template.JS
}

var pageLabelKeys = map[string]string{
	"labels.price":           "Price",
	"labels.size":            "Size",
	"labels.search":          "Search",
	"labels.clear_filters":   "Clear filters",
	"labels.map_unavailable": "Map unavailable",
	"grid.image_placeholder": "No photo",
}

// NewPageData resolves every label the page needs for the snapshot's language.
func NewPageData(snap models.ViewSnapshot, tr i18n.Translator, languages []string, sliderMaxPrice, sliderMaxSize int, state *LeafletState) (PageData, error) {
	labels := make(map[string]string, len(pageLabelKeys))
	for key, fallback := range pageLabelKeys {
		labels[key] = tr.Lookup(snap.Language, key, fallback)
	}

	options := make([]SortOption, 0, len(models.SortKeys))
	for _, k := range models.SortKeys {
		options = append(options, SortOption{
			Key:    k,
			Label:  tr.Lookup(snap.Language, "sort."+string(k), string(k)),
			Active: k == snap.Sort,
		})
	}

	mapJSON := []byte("null")
	if state != nil {
		var err error
		if mapJSON, err = json.Marshal(state); err != nil {
			return PageData{}, fmt.Errorf("view: encode map state: %w", err)
		}
	}

	return PageData{
		Snapshot:       snap,
		Labels:         labels,
		Languages:      languages,
		SortOptions:    options,
		SliderMaxPrice: sliderMaxPrice,
		SliderMaxSize:  sliderMaxSize,
		MapState:       template.JS(mapJSON),
	}, nil
}

// RenderPage writes the listings page.
func RenderPage(w io.Writer, data PageData) error {
	if err := pageTemplate.ExecuteTemplate(w, "page.html", data); err != nil {
		return fmt.Errorf("view: render page: %w", err)
	}
	return nil
}
