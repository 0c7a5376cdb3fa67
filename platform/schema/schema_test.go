package schema

import (
	"testing"

	"dojoflow_backend/platform/apperr"
)

const personSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "age": {"type": "integer", "minimum": 0}
  },
  "required": ["name"],
  "additionalProperties": false
}`

func TestValidateJSON(t *testing.T) {
	s := MustCompile("person", personSchema)

	if err := s.ValidateJSON([]byte(`{"name":"Ana","age":7}`)); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}

	err := s.ValidateJSON([]byte(`{"age":-1,"extra":true}`))
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}

	if err := s.ValidateJSON([]byte(`{not json`)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("malformed JSON should be a validation error, got %v", err)
	}
}

func TestValidateValue(t *testing.T) {
	s := MustCompile("person", personSchema)
	if err := s.ValidateValue(map[string]any{"name": "Ben"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.ValidateValue(map[string]any{"name": ""}); err == nil {
		t.Fatal("expected minLength violation")
	}
}
