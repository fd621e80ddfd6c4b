package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

func mustParse(t *testing.T, doc string) *domain.Shape {
	t.Helper()
	s, err := ParseString(doc)
	require.NoError(t, err)
	return s
}

func TestParsePreservesFieldOrder(t *testing.T) {
	s := mustParse(t, `{"zeta":1,"alpha":"x","mid":{"b":true,"a":null}}`)

	require.Equal(t, domain.ShapeObject, s.Kind)
	require.Len(t, s.Fields, 3)
	assert.Equal(t, "zeta", s.Fields[0].Name)
	assert.Equal(t, "alpha", s.Fields[1].Name)
	assert.Equal(t, "mid", s.Fields[2].Name)

	mid := s.Fields[2].Value
	require.Len(t, mid.Fields, 2)
	assert.Equal(t, "b", mid.Fields[0].Name)
	assert.Equal(t, "a", mid.Fields[1].Name)
	assert.Equal(t, "null", mid.Fields[1].Value.Primitive)
}

func TestParseVariants(t *testing.T) {
	cases := []struct {
		doc  string
		kind domain.ShapeKind
		prim string
	}{
		{`"hello"`, domain.ShapePrimitive, "string"},
		{`42`, domain.ShapePrimitive, "number"},
		{`4.5`, domain.ShapePrimitive, "number"},
		{`true`, domain.ShapePrimitive, "boolean"},
		{`null`, domain.ShapePrimitive, "null"},
		{`[]`, domain.ShapeArray, ""},
		{`{}`, domain.ShapeObject, ""},
	}
	for _, tc := range cases {
		s := mustParse(t, tc.doc)
		assert.Equal(t, tc.kind, s.Kind, "doc %s", tc.doc)
		assert.Equal(t, tc.prim, s.Primitive, "doc %s", tc.doc)
	}
}

func TestParseArrayElem(t *testing.T) {
	s := mustParse(t, `[{"id":1},{"id":2,"extra":true}]`)
	require.Equal(t, domain.ShapeArray, s.Kind)
	require.NotNil(t, s.Elem)
	assert.Equal(t, domain.ShapeObject, s.Elem.Kind)
	assert.Len(t, s.Elem.Fields, 1)
}

func TestParseErrors(t *testing.T) {
	_, err := ParseString(`{"a":`)
	assert.Error(t, err)
	_, err = ParseString(`{} trailing`)
	assert.Error(t, err)
	_, err = ParseString(``)
	assert.Error(t, err)
}

func TestDiffIdentity(t *testing.T) {
	docs := []string{
		`{"a":1,"b":{"c":"x","d":[1,2]}}`,
		`[{"nested":true}]`,
		`"scalar"`,
		`null`,
		`{}`,
	}
	for _, doc := range docs {
		s := mustParse(t, doc)
		assert.Empty(t, Diff(s, s, "$"), "diff of %s with itself", doc)
	}
}

func TestDiffMissingAndExtra(t *testing.T) {
	expected := mustParse(t, `{"a":1,"b":"x"}`)
	actualMissing := mustParse(t, `{"a":1}`)
	actualExtra := mustParse(t, `{"a":1,"b":"x","c":true}`)

	missing := Diff(actualMissing, expected, "$")
	require.Len(t, missing, 1)
	assert.Equal(t, domain.MismatchMissingField, missing[0].Kind)
	assert.Equal(t, "$.b", missing[0].Path)
	assert.Equal(t, "string", missing[0].Expected)

	extra := Diff(actualExtra, expected, "$")
	require.Len(t, extra, 1)
	assert.Equal(t, domain.MismatchExtraField, extra[0].Kind)
	assert.Equal(t, "$.c", extra[0].Path)
}

func TestDiffTypeMismatch(t *testing.T) {
	t.Run("primitive vs primitive", func(t *testing.T) {
		got := Diff(mustParse(t, `"42"`), mustParse(t, `42`), "$")
		require.Len(t, got, 1)
		assert.Equal(t, domain.MismatchTypeMismatch, got[0].Kind)
		assert.Equal(t, "number", got[0].Expected)
		assert.Equal(t, "string", got[0].Actual)
	})

	t.Run("object vs array", func(t *testing.T) {
		got := Diff(mustParse(t, `[]`), mustParse(t, `{}`), "$")
		require.Len(t, got, 1)
		assert.Equal(t, "object", got[0].Expected)
		assert.Equal(t, "array", got[0].Actual)
	})

	t.Run("null against string", func(t *testing.T) {
		got := Diff(mustParse(t, `null`), mustParse(t, `"x"`), "$")
		require.Len(t, got, 1)
	})
}

func TestDiffRecursesWithStableOrder(t *testing.T) {
	expected := mustParse(t, `{"user":{"id":1,"name":"x"},"tag":"y"}`)
	actual := mustParse(t, `{"user":{"name":42},"surplus":true}`)

	got := Diff(actual, expected, "$")
	require.Len(t, got, 4)

	// missing first (expected order), then extras, then recursion results
	assert.Equal(t, domain.MismatchMissingField, got[0].Kind)
	assert.Equal(t, "$.tag", got[0].Path)
	assert.Equal(t, domain.MismatchExtraField, got[1].Kind)
	assert.Equal(t, "$.surplus", got[1].Path)
	assert.Equal(t, domain.MismatchMissingField, got[2].Kind)
	assert.Equal(t, "$.user.id", got[2].Path)
	assert.Equal(t, domain.MismatchTypeMismatch, got[3].Kind)
	assert.Equal(t, "$.user.name", got[3].Path)
	assert.Equal(t, "string", got[3].Expected)
	assert.Equal(t, "number", got[3].Actual)
}

func TestDiffArraysNeverCompareElements(t *testing.T) {
	a := mustParse(t, `[{"id":1}]`)
	b := mustParse(t, `[{"totally":"different"}]`)
	assert.Empty(t, Diff(a, b, "$"))
}

func TestDiffUnknownMatchesAnything(t *testing.T) {
	unknown := &domain.Shape{Kind: domain.ShapeUnknown}
	obj := mustParse(t, `{"a":1}`)
	assert.Empty(t, Diff(unknown, obj, "$"))
	assert.Empty(t, Diff(obj, unknown, "$"))
	assert.Empty(t, Diff(nil, obj, "$"))
}
