package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// Result holds the outcome of a validation run.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Error joins the validation errors into one message.
func (r *Result) Error() string {
	return strings.Join(r.Errors, "; ")
}

// Compile parses a JSON schema document.
func Compile(name, source string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on an invalid schema.
func MustCompile(name, source string) *Schema {
	s, err := Compile(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// ValidateBytes validates a raw JSON document. A malformed document is an error.
func (s *Schema) ValidateBytes(document []byte) (*Result, error) {
	return s.validate(gojsonschema.NewBytesLoader(document))
}

// ValidateValue validates an already decoded Go value.
func (s *Schema) ValidateValue(value interface{}) (*Result, error) {
	return s.validate(gojsonschema.NewGoLoader(value))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) (*Result, error) {
	res, err := s.compiled.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", s.name, err)
	}

	out := &Result{Valid: res.Valid()}
	for _, desc := range res.Errors() {
		out.Errors = append(out.Errors, desc.String())
	}
	return out, nil
}
