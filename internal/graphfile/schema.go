package graphfile

import (
	_ "embed"
	"errors"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed graph.schema.json
var schemaSource string

const schemaURL = "graph.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

func graphSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		schema = jsonschema.MustCompileString(schemaURL, schemaSource)
	})
	return schema
}

// ValidateDocument checks a decoded graph document (maps, slices and
// scalars, as produced by a YAML or JSON decoder) against the graph schema.
func ValidateDocument(doc any) error {
	if err := graphSchema().Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &SchemaError{Causes: leafMessages(ve)}
		}
		return &SchemaError{Causes: []string{err.Error()}}
	}
	return nil
}

// leafMessages flattens a validation error tree into "location: message"
// lines, deepest causes only.
func leafMessages(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + ve.Message}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, leafMessages(c)...)
	}
	return out
}
