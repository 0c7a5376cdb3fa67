// Package schema validates semi-structured JSON documents (automation rules,
// franchise settings) against embedded JSON Schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dojoflow_backend/platform/apperr"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON Schema.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// MustCompile compiles src or panics. Intended for package-level schemas.
func MustCompile(name, src string) *Schema {
	s, err := Compile(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// Compile compiles a draft 2020-12 schema.
func Compile(name, src string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := name + ".schema.json"
	if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: compiled}, nil
}

// ValidateJSON checks raw JSON against the schema. Failures are returned as
// validation errors whose details list the offending locations.
func (s *Schema) ValidateJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return apperr.Validation(fmt.Sprintf("invalid %s: malformed JSON", s.name))
	}
	return s.validate(doc)
}

// ValidateValue marshals v and validates the result.
func (s *Schema) ValidateValue(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("invalid %s", s.name))
	}
	return s.ValidateJSON(data)
}

func (s *Schema) validate(doc interface{}) error {
	err := s.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return apperr.Validation(fmt.Sprintf("invalid %s", s.name))
	}

	details := make([]string, 0)
	collectCauses(verr, &details)
	return apperr.Validation(fmt.Sprintf("invalid %s", s.name)).WithDetails(details)
}

func collectCauses(verr *jsonschema.ValidationError, out *[]string) {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, loc+": "+verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectCauses(cause, out)
	}
}
