package sqlite

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

//go:embed value.schema.json
var valueSchemaBytes []byte

var (
	valueSchema     *jsonschema.Schema
	valueSchemaOnce sync.Once
	valueSchemaErr  error
)

// getValueSchema compiles the embedded field value schema once.
func getValueSchema() (*jsonschema.Schema, error) {
	valueSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(valueSchemaBytes))
		if err != nil {
			valueSchemaErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("value.schema.json", doc); err != nil {
			valueSchemaErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		valueSchema, valueSchemaErr = c.Compile("value.schema.json")
		if valueSchemaErr != nil {
			valueSchemaErr = fmt.Errorf("compiling schema: %w", valueSchemaErr)
		}
	})
	return valueSchema, valueSchemaErr
}

// validateValue checks a wire-encoded field value against the schema.
// Returns an error wrapping types.ErrInvalidValue when the shape is wrong.
func validateValue(data []byte) error {
	schema, err := getValueSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidValue, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidValue, err)
	}
	return nil
}
