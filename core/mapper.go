package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/signalsfoundry/spade/internal/logging"
	"github.com/signalsfoundry/spade/model"
)

// ErrMalformedDocument is returned when a source document cannot be parsed
// at all. Individual bad items never produce it.
var ErrMalformedDocument = errors.New("malformed document")

// XMLMapping describes how to turn a tree document into records.
type XMLMapping struct {
	// Source is the provenance tag placed on every record. Optional.
	Source string
	// ItemPath locates the repeating item elements, relative to the root element.
	ItemPath string
	// Direct maps a record field to an XPath relative to the item.
	Direct map[string]string
	// KeyedPath is the container, relative to the item, holding
	// <USER_DEFINED parameter="..."> elements.
	KeyedPath string
	// Keyed maps a USER_DEFINED parameter name to a record field.
	Keyed map[string]string
}

// JSONMapping describes how to turn a list of attribute-bag objects into
// records.
type JSONMapping struct {
	Source string
	// Attributes maps a record field to a key inside the item's "attributes" object.
	Attributes map[string]string
}

// MapStats summarises one mapping pass.
type MapStats struct {
	Items   int
	Records int
	Dropped int
}

// Mapper runs mapping tables over documents. The zero value is usable and
// logs nothing.
type Mapper struct {
	Log logging.Logger
	// OnDrop, if set, is called for every item that could not become a record.
	OnDrop func(source, noradID string, err error)
}

// NewMapper returns a Mapper that reports skipped items to log.
func NewMapper(log logging.Logger) *Mapper {
	return &Mapper{Log: log}
}

// MapXML parses a tree document and maps every item located by m.ItemPath.
// Items that fail coercion or construction are skipped.
func (mp *Mapper) MapXML(ctx context.Context, r io.Reader, m XMLMapping) ([]model.Record, MapStats, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, MapStats{}, fmt.Errorf("%w: parse xml: %v", ErrMalformedDocument, err)
	}
	root, err := xmlquery.Query(doc, "/*")
	if err != nil || root == nil {
		return nil, MapStats{}, fmt.Errorf("%w: xml document has no root element", ErrMalformedDocument)
	}
	items, err := xmlquery.QueryAll(root, m.ItemPath)
	if err != nil {
		return nil, MapStats{}, fmt.Errorf("item path %q: %w", m.ItemPath, err)
	}

	var keyedPath string
	if m.KeyedPath != "" && len(m.Keyed) > 0 {
		keyedPath = strings.TrimSuffix(m.KeyedPath, "/") + "/USER_DEFINED"
	}

	records := make([]model.Record, 0, len(items))
	stats := MapStats{Items: len(items)}
	for _, item := range items {
		raw := make(map[string]any, len(m.Direct)+len(m.Keyed))
		for field, path := range m.Direct {
			node, err := xmlquery.Query(item, path)
			if err != nil {
				return nil, MapStats{}, fmt.Errorf("path %q for %s: %w", path, field, err)
			}
			if node == nil {
				continue
			}
			if text := strings.TrimSpace(node.InnerText()); text != "" {
				raw[field] = text
			}
		}
		if keyedPath != "" {
			params, err := xmlquery.QueryAll(item, keyedPath)
			if err != nil {
				return nil, MapStats{}, fmt.Errorf("keyed path %q: %w", keyedPath, err)
			}
			for _, p := range params {
				field, ok := m.Keyed[p.SelectAttr("parameter")]
				if !ok {
					continue
				}
				raw[field] = strings.TrimSpace(p.InnerText())
			}
		}

		rec, err := build(raw, m.Source)
		if err != nil {
			mp.drop(ctx, m.Source, raw, err)
			stats.Dropped++
			continue
		}
		records = append(records, *rec)
	}
	stats.Records = len(records)
	return records, stats, nil
}

// MapJSON parses a JSON array of objects carrying an "attributes" bag and
// maps each one.
func (mp *Mapper) MapJSON(ctx context.Context, r io.Reader, m JSONMapping) ([]model.Record, MapStats, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, MapStats{}, fmt.Errorf("%w: decode json: %v", ErrMalformedDocument, err)
	}

	records := make([]model.Record, 0, len(items))
	stats := MapStats{Items: len(items)}
	for _, item := range items {
		attrs, ok := item["attributes"].(map[string]any)
		if !ok {
			mp.drop(ctx, m.Source, nil, errors.New(`item has no "attributes" object`))
			stats.Dropped++
			continue
		}
		raw := make(map[string]any, len(m.Attributes))
		for field, key := range m.Attributes {
			if v, ok := attrs[key]; ok {
				raw[field] = v
			}
		}

		rec, err := build(raw, m.Source)
		if err != nil {
			mp.drop(ctx, m.Source, raw, err)
			stats.Dropped++
			continue
		}
		records = append(records, *rec)
	}
	stats.Records = len(records)
	return records, stats, nil
}

func build(raw map[string]any, source string) (*model.Record, error) {
	typed, err := Coerce(raw)
	if err != nil {
		return nil, err
	}
	rec, err := model.NewRecord(typed)
	if err != nil {
		return nil, err
	}
	if source != "" {
		tagged := rec.WithSource(source)
		rec = &tagged
	}
	return rec, nil
}

func (mp *Mapper) drop(ctx context.Context, source string, raw map[string]any, err error) {
	noradID := "UNKNOWN"
	if v, ok := raw[model.FieldNoradCatID]; ok && v != nil {
		noradID = fmt.Sprint(v)
	}
	if mp.Log != nil {
		mp.Log.Warn(ctx, "skipping item: could not build record",
			logging.String("source", source),
			logging.String("norad_id", noradID),
			logging.String("error", err.Error()),
		)
	}
	if mp.OnDrop != nil {
		mp.OnDrop(source, noradID, err)
	}
}
