package tree

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DefaultTitle is used when a record has no title.
const DefaultTitle = "未命名"

// Record is the serialized form of a node and its subtree.
type Record struct {
	ID       string   `json:"id" jsonschema:"description=Opaque node identifier unique in the tree"`
	Title    string   `json:"title" jsonschema:"description=Display title"`
	IsFolder bool     `json:"is_folder" jsonschema:"description=True for folders which may hold children"`
	Children []Record `json:"children" jsonschema:"description=Ordered child nodes"`
}

// UnmarshalJSON decodes a record, applying defaults for missing fields.
//
// The id is coerced to a string whatever its JSON type and is_folder accepts any
// truthy value.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage   `json:"id"`
		Title    json.RawMessage   `json:"title"`
		IsFolder json.RawMessage   `json:"is_folder"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		ID:       coerceString(raw.ID),
		Title:    coerceString(raw.Title),
		IsFolder: coerceBool(raw.IsFolder),
	}
	if isNull(raw.Title) {
		r.Title = DefaultTitle
	}
	if len(raw.Children) > 0 {
		r.Children = make([]Record, 0, len(raw.Children))
		for _, c := range raw.Children {
			var child Record
			if err := child.UnmarshalJSON(c); err != nil {
				return err
			}
			r.Children = append(r.Children, child)
		}
	}
	return nil
}

// MarshalJSON always emits children as an array, never null.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	if p.Children == nil {
		p.Children = []Record{}
	}
	return json.Marshal(p)
}

// isNull reports whether a field is absent or JSON null.
func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func coerceString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Numbers, booleans; anything else keeps its JSON text.
	return string(raw)
}

func coerceBool(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}
