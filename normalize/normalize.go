// Package normalize converts loosely typed preview records into the strict
// glimpse.Item schema.
package normalize

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/fwojciec/glimpse"
)

// Item converts raw into a glimpse.Item. Returns EINVALID when url is
// missing or empty; every other field is coerced, never rejected.
func Item(raw map[string]any) (*glimpse.Item, error) {
	item := &glimpse.Item{URL: derefString(str(raw["url"]))}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	item.Title = str(raw["title"])
	item.Description = str(raw["description"])
	item.Image = image(raw["image"])
	item.SiteName = str(first(raw, "site_name", "siteName"))
	item.TabID = integer(raw["tab_id"])
	item.TabTitle = str(raw["tab_title"])
	item.TextEmbedding = embedding(raw["text_embedding"])
	item.ImageEmbedding = embedding(raw["image_embedding"])
	item.Metadata = object(raw["metadata"])
	item.IsDocCard = raw["is_doc_card"] == true
	item.IsScreenshot = raw["is_screenshot"] == true
	item.Success = raw["success"] != false
	item.ImageWidth = integer(raw["image_width"])
	item.ImageHeight = integer(raw["image_height"])

	return item, nil
}

// Batch normalizes items in order. Invalid items are skipped and logged
// rather than aborting the batch. A nil logger discards log output.
func Batch(raws []map[string]any, logger *slog.Logger) []*glimpse.Item {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	items := make([]*glimpse.Item, 0, len(raws))
	for i, raw := range raws {
		item, err := Item(raw)
		if err != nil {
			logger.Warn("skipping invalid item", "index", i, "error", glimpse.ErrorMessage(err))
			continue
		}
		for _, w := range Warnings(item) {
			logger.Warn(w, "url", item.URL)
		}
		items = append(items, item)
	}
	return items
}

// Warnings reports embeddings whose length differs from glimpse.EmbeddingSize.
// Such embeddings are kept as produced.
func Warnings(item *glimpse.Item) []string {
	var warnings []string
	for _, e := range []struct {
		name   string
		values []float64
	}{
		{"text_embedding", item.TextEmbedding},
		{"image_embedding", item.ImageEmbedding},
	} {
		if e.values != nil && len(e.values) != glimpse.EmbeddingSize {
			warnings = append(warnings, fmt.Sprintf("%s has %d entries, expected %d", e.name, len(e.values), glimpse.EmbeddingSize))
		}
	}
	return warnings
}

// Preview returns the raw record of an extraction result, keyed the way
// extraction results are exchanged with the host.
func Preview(p *glimpse.Preview) map[string]any {
	raw := map[string]any{
		"url":              p.URL,
		"title":            p.Title,
		"description":      p.Description,
		"image":            p.Image,
		"siteName":         p.SiteName,
		"success":          p.Success,
		"timestamp":        p.Timestamp,
		"extractionMethod": p.ExtractionMethod,
	}
	if p.Error != "" {
		raw["error"] = p.Error
	}
	return raw
}

func first(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// str returns nil for missing and empty values and stringifies scalars.
func str(v any) *string {
	var s string
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case json.Number:
		s = v.String()
	default:
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// image takes the first element when given an array.
func image(v any) *string {
	switch v := v.(type) {
	case []any:
		if len(v) == 0 {
			return nil
		}
		return str(v[0])
	case []string:
		if len(v) == 0 {
			return nil
		}
		return str(v[0])
	}
	return str(v)
}

// number coerces numerics and numeric strings; anything else is not a number.
func number(v any) (float64, bool) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// integer accepts whole numbers only; fractional or out-of-range values
// are treated as non-numeric.
func integer(v any) *int64 {
	var n int64
	switch v := v.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case int32:
		n = int64(v)
	default:
		if s, ok := v.(string); ok {
			if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return &i
			}
		}
		if jn, ok := v.(json.Number); ok {
			if i, err := jn.Int64(); err == nil {
				return &i
			}
		}
		f, ok := number(v)
		if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil
		}
		n = int64(f)
	}
	return &n
}

// embedding keeps only finite numeric entries.
func embedding(v any) []float64 {
	var values []any
	switch v := v.(type) {
	case []any:
		values = v
	case []float64:
		values = make([]any, len(v))
		for i, f := range v {
			values[i] = f
		}
	case []float32:
		values = make([]any, len(v))
		for i, f := range v {
			values[i] = f
		}
	default:
		return nil
	}

	out := make([]float64, 0, len(values))
	for _, e := range values {
		if _, isString := e.(string); isString {
			continue
		}
		if f, ok := number(e); ok {
			out = append(out, f)
		}
	}
	return out
}

func object(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}
