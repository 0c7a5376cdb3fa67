package validator

import "testing"

type sample struct {
	Status string `validate:"required,color"`
	Name   string `validate:"required"`
}

func TestOneOfAndFieldErrors(t *testing.T) {
	val := New()
	if err := val.RegisterValidation("color", OneOf("red", "green")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := val.Struct(sample{Status: "red", Name: "x"}); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}

	err := val.Struct(sample{Status: "blue"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fields := FieldErrors(err)
	if fields["status"] != "color" {
		t.Fatalf("expected status to fail the color tag, got %v", fields)
	}
	if fields["name"] != "required" {
		t.Fatalf("expected name to fail required, got %v", fields)
	}
}
