package server

import (
	"net/url"
	"strings"

	"github.com/gorilla/schema"

	"crous-x/controller"
	"crous-x/models"
)

// ViewQuery carries the page controls as query parameters. Absent parameters
// leave the corresponding control untouched; a present but empty "types"
// clears the type selection.
type ViewQuery struct {
	MaxPrice *int     `schema:"maxPrice"`
	MaxSize  *int     `schema:"maxSize"`
	Types    []string `schema:"types"`
	Search   *string  `schema:"q"`
	Sort     *string  `schema:"sort"`
	Lang     *string  `schema:"lang"`
}

func decodeViewQuery(values url.Values) (*ViewQuery, error) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	q := &ViewQuery{}
	if err := decoder.Decode(q, values); err != nil {
		return nil, err
	}
	if _, ok := values["types"]; ok && q.Types == nil {
		q.Types = []string{}
	}
	return q, nil
}

// Update converts the query into a controller batch. negotiate maps the
// requested language onto a supported one.
func (q *ViewQuery) Update(negotiate func(...string) string) controller.Update {
	u := controller.Update{
		MaxPrice: q.MaxPrice,
		MaxSize:  q.MaxSize,
		Search:   q.Search,
	}
	if q.Types != nil {
		types := make([]models.PropertyType, 0, len(q.Types))
		for _, raw := range q.Types {
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					types = append(types, models.PropertyType(part))
				}
			}
		}
		u.Types = &types
	}
	if q.Sort != nil {
		key := models.ParseSortKey(*q.Sort)
		u.Sort = &key
	}
	if q.Lang != nil && strings.TrimSpace(*q.Lang) != "" {
		lang := negotiate(*q.Lang)
		u.Language = &lang
	}
	return u
}
