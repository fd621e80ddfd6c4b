package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/parser"
)

const sampleFacts = `{
  "repo": "shop-backend",
  "containers": [
    {"id": "app.js:app", "name": "app"},
    {"id": "users.js:router", "name": "router", "file": "src/users.js"}
  ],
  "mounts": [
    {"parent": "app.js:app", "child": "users.js:router", "prefix": "/users"}
  ],
  "endpoints": [
    {"container": "users.js:router", "method": "get", "path": "/:id",
     "file": "src/users.js", "line": 12,
     "request_shape": {"name": "x"}}
  ],
  "calls": [
    {"url": "/users/${id}", "method": "GET", "file": "src/client.js", "line": 40}
  ]
}`

func TestToFactSet(t *testing.T) {
	doc, err := parser.ParseFactsString(sampleFacts)
	require.NoError(t, err)

	fs, warnings := ToFactSet(doc)
	assert.Empty(t, warnings)

	require.Len(t, fs.Containers, 2)
	assert.Equal(t, "app.js:app", fs.Containers[0].ID)

	require.Len(t, fs.Mounts, 1)
	assert.Equal(t, "/users", fs.Mounts[0].Prefix)

	require.Len(t, fs.Endpoints, 1)
	assert.Equal(t, "GET", fs.Endpoints[0].Method, "method is uppercased")
	require.NotNil(t, fs.Endpoints[0].RequestShape)
	assert.Equal(t, domain.ShapeObject, fs.Endpoints[0].RequestShape.Kind)

	require.Len(t, fs.Calls, 1)
	assert.Equal(t, "/users/${id}", fs.Calls[0].URL)
}

func TestToFactSetSkipsMalformedRecords(t *testing.T) {
	doc := &parser.FactsDoc{
		Containers: []parser.JContainer{{ID: ""}, {ID: "ok"}},
		Endpoints: []parser.JEndpoint{
			{Container: "ok", Method: "", Path: "/x"},
			{Container: "ok", Method: "GET", Path: "/y"},
		},
		Calls: []parser.JCall{{URL: ""}, {URL: "/z", Method: "GET"}},
	}

	fs, warnings := ToFactSet(doc)
	assert.Len(t, warnings, 3)
	assert.Len(t, fs.Containers, 1)
	assert.Len(t, fs.Endpoints, 1)
	assert.Len(t, fs.Calls, 1)
}

func TestToFactSetDegradesBadShapeToUnknown(t *testing.T) {
	doc := &parser.FactsDoc{
		Endpoints: []parser.JEndpoint{
			{Container: "c", Method: "POST", Path: "/x", RequestShape: []byte(`{"broken":`)},
		},
	}

	fs, warnings := ToFactSet(doc)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "request_shape")
	require.Len(t, fs.Endpoints, 1)
	require.NotNil(t, fs.Endpoints[0].RequestShape)
	assert.Equal(t, domain.ShapeUnknown, fs.Endpoints[0].RequestShape.Kind)
}

func TestMergeDedupsContainers(t *testing.T) {
	a := &parser.FactsDoc{
		Containers: []parser.JContainer{{ID: "shared"}, {ID: "a-only"}},
		Calls:      []parser.JCall{{URL: "/a", Method: "GET"}},
	}
	b := &parser.FactsDoc{
		Containers: []parser.JContainer{{ID: "shared"}, {ID: "b-only"}},
		Calls:      []parser.JCall{{URL: "/b", Method: "GET"}},
	}

	merged := Merge(a, b)
	require.Len(t, merged.Containers, 3)
	assert.Equal(t, "shared", merged.Containers[0].ID)
	assert.Equal(t, "a-only", merged.Containers[1].ID)
	assert.Equal(t, "b-only", merged.Containers[2].ID)
	assert.Len(t, merged.Calls, 2)
}
