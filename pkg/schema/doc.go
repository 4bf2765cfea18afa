// Package schema decodes and validates loosely typed records at the boundaries
// of the pipeline.
//
// Stage updates, operational parameters and composed answers arrive either as
// typed Go values or as nested maps decoded from JSON or YAML. Decode turns the
// map form into a typed record with mapstructure, and Struct checks the
// `validate` tags of a record with go-playground/validator. Failures are
// reported as an AggregateError of per-field ValidationErrors.
//
//	var out domain.ComposedOutput
//	if err := schema.Decode(raw, &out); err != nil {
//	    // Handle validation errors
//	}
package schema
