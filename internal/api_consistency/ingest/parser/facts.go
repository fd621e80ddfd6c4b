// Package parser decodes the wire-level facts documents the extractor
// produces. Shapes arrive as sample JSON documents and are kept raw here;
// the mapper derives structural shapes from them.
package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

// FactsDoc is the raw facts file: one analysis input per repository, merged
// upstream when several repositories are analyzed together.
type FactsDoc struct {
	Repo         string        `json:"repo,omitempty"`
	Containers   []JContainer  `json:"containers"`
	Mounts       []JMount      `json:"mounts"`
	Endpoints    []JEndpoint   `json:"endpoints"`
	Calls        []JCall       `json:"calls"`
	Dependencies []JDependency `json:"dependencies,omitempty"`
}

type JContainer struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	File string `json:"file,omitempty"`
}

type JMount struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Prefix string `json:"prefix,omitempty"`
}

type JEndpoint struct {
	Container     string          `json:"container"`
	Method        string          `json:"method"`
	Path          string          `json:"path"`
	Handler       string          `json:"handler,omitempty"`
	File          string          `json:"file,omitempty"`
	Line          int             `json:"line,omitempty"`
	RequestShape  json.RawMessage `json:"request_shape,omitempty"`
	ResponseShape json.RawMessage `json:"response_shape,omitempty"`
}

type JCall struct {
	URL          string          `json:"url"`
	Method       string          `json:"method"`
	File         string          `json:"file,omitempty"`
	Line         int             `json:"line,omitempty"`
	RequestShape json.RawMessage `json:"request_shape,omitempty"`
}

// JDependency reports a shared contract package pinned by the scanned repo,
// e.g. a published API client or a schema package.
type JDependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func ParseFacts(path string) (*FactsDoc, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFactsBytes(b)
}

func ParseFactsBytes(b []byte) (*FactsDoc, error) {
	var d FactsDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFacts, err)
	}
	return &d, nil
}

func ParseFactsString(s string) (*FactsDoc, error) {
	return ParseFactsBytes([]byte(s))
}
