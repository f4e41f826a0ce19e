package types

import (
	"errors"
	"fmt"
)

// UntitledTitle is shown when a record has no value in its display field.
const UntitledTitle = "Untitled"

// Content type errors.
var (
	ErrInvalidContentType = errors.New("invalid content type")
)

// ContentType is the host's metadata for a kind of Record.
type ContentType struct {
	// ID is the content type identifier referenced by Record.ContentTypeID.
	ID string `json:"id"`

	// Name is the human-readable type name shown in summaries.
	Name string `json:"name"`

	// DisplayField is the field ID whose localized value titles a record.
	DisplayField string `json:"displayField"`
}

// Validate checks that the content type can be stored.
func (c *ContentType) Validate() error {
	if c == nil || c.Name == "" {
		return ErrInvalidContentType
	}
	return nil
}

// DisplaySummary is the small view of a linked Record shown in place of the
// record itself.
type DisplaySummary struct {
	// RecordID is the ID of the Record the summary was derived from.
	RecordID string `json:"recordId"`
	TypeName string `json:"typeName"`
	Title    string `json:"title"`
}

// Summarize derives a DisplaySummary for r using ct's display field in locale.
// A missing display value yields UntitledTitle.
func Summarize(r *Record, ct *ContentType, locale string) *DisplaySummary {
	s := &DisplaySummary{RecordID: r.ID(), Title: UntitledTitle}
	if ct == nil {
		return s
	}
	s.TypeName = ct.Name
	if title, ok := r.Field(ct.DisplayField, locale); ok && title != "" {
		s.Title = title
	}
	return s
}

// String renders the summary as "Type: Title (id)". The type is left out
// when unknown and the ID when the record has none.
func (s *DisplaySummary) String() string {
	if s == nil {
		return ""
	}
	label := s.Title
	if s.TypeName != "" {
		label = s.TypeName + ": " + label
	}
	if s.RecordID != "" {
		label = fmt.Sprintf("%s (%s)", label, s.RecordID)
	}
	return label
}
