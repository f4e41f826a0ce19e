package types

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record paths. A Record follows the host's entry layout:
//
//	{"sys": {"id": "...", "contentType": {"sys": {"id": "..."}}},
//	 "fields": {"<fieldId>": {"<locale>": <value>}}}
const (
	recordIDPath          = "sys.id"
	recordContentTypePath = "sys.contentType.sys.id"
	recordFieldsPath      = "fields"
)

// Record errors.
var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrNotFound      = errors.New("entity not found")
)

// Record is an opaque content entry supplied by the host. The raw JSON is kept
// verbatim so a value round-trips exactly; accessors read the few paths the
// field needs for its display summary.
type Record struct {
	raw []byte
}

// ParseRecord wraps data as a Record. Returns ErrInvalidRecord if data is not
// a JSON object.
func ParseRecord(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidRecord)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Record{raw: cp}, nil
}

// NewRecord builds a Record with the given ID, content type, and localized
// fields (fieldID -> locale -> value).
func NewRecord(id, contentTypeID string, fields map[string]map[string]any) (*Record, error) {
	raw := []byte(`{"sys":{"type":"Entry"}}`)
	var err error
	if id != "" {
		if raw, err = sjson.SetBytes(raw, recordIDPath, id); err != nil {
			return nil, fmt.Errorf("set id: %w", err)
		}
	}
	link := map[string]any{"sys": map[string]any{
		"type":     "Link",
		"linkType": "ContentType",
		"id":       contentTypeID,
	}}
	if raw, err = sjson.SetBytes(raw, "sys.contentType", link); err != nil {
		return nil, fmt.Errorf("set content type: %w", err)
	}
	if raw, err = sjson.SetRawBytes(raw, recordFieldsPath, []byte(`{}`)); err != nil {
		return nil, fmt.Errorf("set fields: %w", err)
	}
	// Keys are written in sorted order so equal input builds equal bytes.
	for _, fieldID := range sortedKeys(fields) {
		locales := fields[fieldID]
		for _, locale := range sortedKeys(locales) {
			if raw, err = sjson.SetBytes(raw, fieldPath(fieldID, locale), locales[locale]); err != nil {
				return nil, fmt.Errorf("set field %s: %w", fieldID, err)
			}
		}
	}
	return &Record{raw: raw}, nil
}

// ID returns sys.id, or "" when r is nil or has no ID.
func (r *Record) ID() string {
	if r == nil {
		return ""
	}
	return gjson.GetBytes(r.raw, recordIDPath).String()
}

// ContentTypeID returns the ID of the record's content type.
func (r *Record) ContentTypeID() string {
	if r == nil {
		return ""
	}
	return gjson.GetBytes(r.raw, recordContentTypePath).String()
}

// Field returns the value of fieldID for locale rendered as a string.
// ok is false when the field or locale is absent.
func (r *Record) Field(fieldID, locale string) (value string, ok bool) {
	if r == nil || fieldID == "" {
		return "", false
	}
	res := gjson.GetBytes(r.raw, fieldPath(fieldID, locale))
	if !res.Exists() || res.Type == gjson.Null {
		return "", false
	}
	return res.String(), true
}

// FieldIDs lists the field IDs present on the record.
func (r *Record) FieldIDs() []string {
	if r == nil {
		return nil
	}
	var ids []string
	gjson.GetBytes(r.raw, recordFieldsPath).ForEach(func(key, _ gjson.Result) bool {
		ids = append(ids, key.String())
		return true
	})
	return ids
}

// WithID returns a copy of r with sys.id set to id.
func (r *Record) WithID(id string) (*Record, error) {
	raw, err := sjson.SetBytes(r.Bytes(), recordIDPath, id)
	if err != nil {
		return nil, fmt.Errorf("set id: %w", err)
	}
	return &Record{raw: raw}, nil
}

// WithField returns a copy of r with fieldID set to value for locale.
func (r *Record) WithField(fieldID, locale string, value any) (*Record, error) {
	raw, err := sjson.SetBytes(r.Bytes(), fieldPath(fieldID, locale), value)
	if err != nil {
		return nil, fmt.Errorf("set field %s: %w", fieldID, err)
	}
	return &Record{raw: raw}, nil
}

// Same reports whether r and o hold the same JSON document, ignoring
// insignificant whitespace. Two nil records are the same.
func (r *Record) Same(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if bytes.Equal(r.raw, o.raw) {
		return true
	}
	var a, b bytes.Buffer
	if json.Compact(&a, r.raw) != nil || json.Compact(&b, o.raw) != nil {
		return false
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// Bytes returns a copy of the raw JSON.
func (r *Record) Bytes() []byte {
	if r == nil {
		return nil
	}
	cp := make([]byte, len(r.raw))
	copy(cp, r.raw)
	return cp
}

// MarshalJSON writes the raw record unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.Bytes(), nil
}

// UnmarshalJSON keeps data verbatim.
func (r *Record) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRecord(data)
	if err != nil {
		return err
	}
	r.raw = parsed.raw
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fieldPath(fieldID, locale string) string {
	return recordFieldsPath + "." + escapePath(fieldID) + "." + escapePath(locale)
}

// escapePath escapes the characters gjson and sjson treat as path syntax.
func escapePath(component string) string {
	var b strings.Builder
	for _, c := range component {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
