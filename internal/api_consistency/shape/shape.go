// Package shape derives structural JSON shapes from sample documents and
// compares them. Shapes describe field structure only; literal values are
// placeholders and never compared.
package shape

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

// Parse decodes a JSON document into a Shape. Object fields keep the order
// they appear in the document, which is what makes diff reports reproducible
// across runs.
func Parse(b []byte) (*domain.Shape, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	s, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("parse shape: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse shape: trailing data after document")
	}
	return s, nil
}

func ParseString(s string) (*domain.Shape, error) {
	return Parse([]byte(s))
}

func parseValue(dec *json.Decoder) (*domain.Shape, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			s := &domain.Shape{Kind: domain.ShapeObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				s.Fields = append(s.Fields, domain.ShapeField{Name: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil
		case '[':
			s := &domain.Shape{Kind: domain.ShapeArray}
			for dec.More() {
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				if s.Elem == nil {
					s.Elem = val
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v.String())
	case string:
		return &domain.Shape{Kind: domain.ShapePrimitive, Primitive: "string"}, nil
	case json.Number:
		return &domain.Shape{Kind: domain.ShapePrimitive, Primitive: "number"}, nil
	case bool:
		return &domain.Shape{Kind: domain.ShapePrimitive, Primitive: "boolean"}, nil
	case nil:
		return &domain.Shape{Kind: domain.ShapePrimitive, Primitive: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// Describe renders a shape's variant for mismatch messages: the primitive
// name for primitives, the kind name otherwise.
func Describe(s *domain.Shape) string {
	if s == nil || s.Kind == domain.ShapeUnknown {
		return string(domain.ShapeUnknown)
	}
	if s.Kind == domain.ShapePrimitive {
		return s.Primitive
	}
	return string(s.Kind)
}

// Diff structurally compares actual (the call side) against expected (the
// endpoint side), rooted at path. Pure and total; the mismatch order is
// fixed: missing fields in expected declaration order, then extra fields in
// actual declaration order, then recursion into common fields in expected
// declaration order. An unknown shape on either side matches anything.
// Array elements are never compared item by item.
func Diff(actual, expected *domain.Shape, path string) []domain.FieldMismatch {
	if actual == nil || expected == nil {
		return nil
	}
	if actual.Kind == domain.ShapeUnknown || expected.Kind == domain.ShapeUnknown {
		return nil
	}

	if actual.Kind != expected.Kind {
		return []domain.FieldMismatch{{
			Kind:     domain.MismatchTypeMismatch,
			Path:     path,
			Expected: Describe(expected),
			Actual:   Describe(actual),
		}}
	}

	switch expected.Kind {
	case domain.ShapeObject:
		return diffObjects(actual, expected, path)
	case domain.ShapeArray:
		// compatible by presence alone
		return nil
	case domain.ShapePrimitive:
		if actual.Primitive != expected.Primitive {
			return []domain.FieldMismatch{{
				Kind:     domain.MismatchTypeMismatch,
				Path:     path,
				Expected: expected.Primitive,
				Actual:   actual.Primitive,
			}}
		}
	}
	return nil
}

func diffObjects(actual, expected *domain.Shape, path string) []domain.FieldMismatch {
	var out []domain.FieldMismatch

	for _, f := range expected.Fields {
		if actual.Field(f.Name) == nil {
			out = append(out, domain.FieldMismatch{
				Kind:     domain.MismatchMissingField,
				Path:     path + "." + f.Name,
				Expected: Describe(f.Value),
			})
		}
	}
	for _, f := range actual.Fields {
		if expected.Field(f.Name) == nil {
			out = append(out, domain.FieldMismatch{
				Kind:   domain.MismatchExtraField,
				Path:   path + "." + f.Name,
				Actual: Describe(f.Value),
			})
		}
	}
	for _, f := range expected.Fields {
		if av := actual.Field(f.Name); av != nil {
			out = append(out, Diff(av, f.Value, path+"."+f.Name)...)
		}
	}
	return out
}
