// Package envelope decodes the backend's list-response envelopes. The
// hospital API is not consistent about how it wraps lists: some endpoints
// nest them under data.data with pagination metadata, some return a bare
// array under data, and some key the list by entity name
// (data.international_patients). Rather than probing optional fields ad
// hoc, the decoder tries each documented variant in order and reports
// which one matched; anything unrecognized degrades to an explicit empty
// variant instead of an error.
package envelope

import "encoding/json"

// Pagination is the server-provided page metadata. All fields are optional
// on the wire; a zero Pagination means the server sent none.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalRecords int `json:"total_records"`
	Limit        int `json:"limit"`
}

// Known reports whether the server provided any usable totals.
func (p Pagination) Known() bool {
	return p.TotalPages > 0 || p.TotalRecords > 0
}

// Shape identifies which envelope variant a response used.
type Shape string

const (
	// ShapeNested is {"data":{"data":[...],"pagination":{...}}}.
	ShapeNested Shape = "nested"
	// ShapeFlat is {"data":[...]}.
	ShapeFlat Shape = "flat"
	// ShapeKeyed is {"data":{"<entity_key>":[...],"pagination":{...}}}.
	ShapeKeyed Shape = "keyed"
	// ShapeEmpty is the fallback for anything unrecognized.
	ShapeEmpty Shape = "empty"
)

// ListPage is the flattened view of a list response, identical regardless
// of which envelope the server used.
type ListPage struct {
	Items      []json.RawMessage
	Pagination Pagination
	Shape      Shape
}

// DecodeList flattens a success payload into a ListPage. entityKey names
// the resource-specific nesting key (e.g. "international_patients"); pass
// "" for resources that never use the keyed shape. Unrecognized payloads
// yield an empty page, not an error — a list screen renders "no records"
// for a shape it does not understand.
func DecodeList(payload json.RawMessage, entityKey string) ListPage {
	if len(payload) == 0 {
		return ListPage{Shape: ShapeEmpty}
	}

	var outer struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &outer); err != nil || len(outer.Data) == 0 {
		return ListPage{Shape: ShapeEmpty}
	}

	// Variant: data is a bare array.
	var flat []json.RawMessage
	if err := json.Unmarshal(outer.Data, &flat); err == nil {
		return ListPage{Items: flat, Shape: ShapeFlat}
	}

	// Variant: data.data with pagination.
	var nested struct {
		Data       []json.RawMessage `json:"data"`
		Pagination Pagination        `json:"pagination"`
	}
	if err := json.Unmarshal(outer.Data, &nested); err == nil && nested.Data != nil {
		return ListPage{Items: nested.Data, Pagination: nested.Pagination, Shape: ShapeNested}
	}

	// Variant: data.<entityKey> with optional pagination.
	if entityKey != "" {
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(outer.Data, &keyed); err == nil {
			if raw, ok := keyed[entityKey]; ok {
				var items []json.RawMessage
				if err := json.Unmarshal(raw, &items); err == nil {
					page := ListPage{Items: items, Shape: ShapeKeyed}
					if rawPg, ok := keyed["pagination"]; ok {
						_ = json.Unmarshal(rawPg, &page.Pagination)
					}
					return page
				}
			}
		}
	}

	return ListPage{Shape: ShapeEmpty}
}

// Unmarshal decodes every item of a page into T, skipping items that fail
// to decode rather than aborting the whole page.
func Unmarshal[T any](page ListPage) []T {
	out := make([]T, 0, len(page.Items))
	for _, raw := range page.Items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
