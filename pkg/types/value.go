package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// LinkType tags which variant a FieldValue holds.
type LinkType string

// Link types. The string values are the persisted wire tags.
const (
	LinkTypeInternal LinkType = "internal" // reference to a Record
	LinkTypeExternal LinkType = "external" // literal URL
)

// Value errors.
var (
	ErrInvalidLinkType = errors.New("invalid link type")
	ErrInvalidValue    = errors.New("invalid field value")
)

// ParseLinkType converts s to a LinkType.
// Returns ErrInvalidLinkType if s is not one of the known tags.
func ParseLinkType(s string) (LinkType, error) {
	switch LinkType(s) {
	case LinkTypeInternal, LinkTypeExternal:
		return LinkType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLinkType, s)
	}
}

// FieldValue is the persisted link value. A nil *FieldValue means unset.
// Only the payload belonging to LinkType is meaningful: Entry for internal
// links, URL for external ones. Build values with NewInternal, NewExternal,
// Empty, WithTarget and WithURL so the other payload is never carried.
type FieldValue struct {
	LinkType LinkType
	Entry    *Record
	URL      string
}

// NewInternal returns an internal link to target. target may be nil while the
// editor has not picked a record yet.
func NewInternal(target *Record) *FieldValue {
	return &FieldValue{LinkType: LinkTypeInternal, Entry: target}
}

// NewExternal returns an external link holding url. An empty url is legal and
// marks a link that has not been filled in.
func NewExternal(url string) *FieldValue {
	return &FieldValue{LinkType: LinkTypeExternal, URL: url}
}

// Empty returns a fresh value of the given variant with an empty payload.
// Returns ErrInvalidLinkType for an unknown kind.
func Empty(kind LinkType) (*FieldValue, error) {
	switch kind {
	case LinkTypeInternal:
		return NewInternal(nil), nil
	case LinkTypeExternal:
		return NewExternal(""), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLinkType, kind)
	}
}

// WithTarget returns an internal value pointing at target. Any external
// payload on v is dropped. v may be nil.
func (v *FieldValue) WithTarget(target *Record) *FieldValue {
	return NewInternal(target)
}

// WithURL returns an external value holding url. Any internal payload on v is
// dropped. v may be nil.
func (v *FieldValue) WithURL(url string) *FieldValue {
	return NewExternal(url)
}

// IsSet reports whether v holds either variant.
func (v *FieldValue) IsSet() bool {
	return v != nil
}

// Kind returns the variant tag, or "" when v is unset.
func (v *FieldValue) Kind() LinkType {
	if v == nil {
		return ""
	}
	return v.LinkType
}

// Target returns the linked Record for an internal value, nil otherwise.
func (v *FieldValue) Target() *Record {
	if v == nil || v.LinkType != LinkTypeInternal {
		return nil
	}
	return v.Entry
}

// TargetID returns the ID of the linked Record, or "" when there is none.
func (v *FieldValue) TargetID() string {
	return v.Target().ID()
}

// IsInvalid reports the field-invalid flag for v. An internal value without a
// target and an external value with an empty URL are invalid. An unset value
// is never invalid; required-ness is enforced elsewhere.
func (v *FieldValue) IsInvalid() bool {
	if v == nil {
		return false
	}
	switch v.LinkType {
	case LinkTypeInternal:
		return v.Entry == nil
	case LinkTypeExternal:
		return v.URL == ""
	default:
		return true
	}
}

// Equal reports whether v and o encode to the same wire value.
func (v *FieldValue) Equal(o *FieldValue) bool {
	a, errA := EncodeValue(v)
	b, errB := EncodeValue(o)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

type internalWire struct {
	LinkType LinkType `json:"linkType"`
	Entry    *Record  `json:"entry"`
}

type externalWire struct {
	LinkType LinkType `json:"linkType"`
	URL      string   `json:"url"`
}

type probeWire struct {
	LinkType LinkType        `json:"linkType"`
	Entry    json.RawMessage `json:"entry"`
	URL      *string         `json:"url"`
}

// MarshalJSON writes only the payload of the active variant.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.LinkType {
	case LinkTypeInternal:
		return json.Marshal(internalWire{LinkType: v.LinkType, Entry: v.Entry})
	case LinkTypeExternal:
		return json.Marshal(externalWire{LinkType: v.LinkType, URL: v.URL})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLinkType, v.LinkType)
	}
}

// UnmarshalJSON reads either variant. Fields belonging to the other variant
// are ignored.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var p probeWire
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	switch p.LinkType {
	case LinkTypeInternal:
		*v = FieldValue{LinkType: LinkTypeInternal}
		if len(p.Entry) == 0 || isJSONNull(p.Entry) {
			return nil
		}
		rec, err := ParseRecord(p.Entry)
		if err != nil {
			return fmt.Errorf("%w: entry: %v", ErrInvalidValue, err)
		}
		v.Entry = rec
		return nil
	case LinkTypeExternal:
		*v = FieldValue{LinkType: LinkTypeExternal}
		if p.URL != nil {
			v.URL = *p.URL
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLinkType, p.LinkType)
	}
}

// EncodeValue returns the wire form of v. An unset value encodes as null.
func EncodeValue(v *FieldValue) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// DecodeValue parses the wire form produced by EncodeValue. Empty input and
// null both decode to an unset value.
func DecodeValue(data []byte) (*FieldValue, error) {
	if len(bytes.TrimSpace(data)) == 0 || isJSONNull(data) {
		return nil, nil
	}
	v := new(FieldValue)
	if err := v.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return v, nil
}

func isJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
