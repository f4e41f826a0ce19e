// Package types defines the link field value model, the opaque host Record,
// display summaries, content-type metadata, configuration, and the standard
// error values shared by the controller, the local host, and the CLI.
//
// A field value is either unset (a nil *FieldValue) or exactly one of two
// variants: an internal link to a Record, or an external URL. Values are
// immutable once built; every transition produces a new value.
package types
