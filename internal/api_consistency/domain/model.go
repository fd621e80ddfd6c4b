package domain

type Attrs map[string]any

// ContainerNode is a routing container discovered in source: a router,
// sub-router, or mountable group identified by file + symbol.
type ContainerNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	Role Role   `json:"role"`
}

// MountEdge records that Parent mounts Child under Prefix. Order is the
// declaration order of the mount fact and breaks ties when a child has
// several parents.
type MountEdge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Prefix string `json:"prefix"`
	Order  int    `json:"order"`
}

type Graph struct {
	Nodes map[string]*ContainerNode `json:"nodes"`
	Edges []*MountEdge              `json:"edges"`
	// Order lists node IDs in first-seen order so algorithms never depend on
	// map iteration order.
	Order []string `json:"-"`
	// adjacency for algorithms
	Out map[string][]*MountEdge `json:"-"` // parent -> mounts it declares
	In  map[string][]*MountEdge `json:"-"` // child -> mounts that place it
}

func NewGraph() *Graph {
	return &Graph{
		Nodes: map[string]*ContainerNode{},
		Edges: []*MountEdge{},
		Out:   map[string][]*MountEdge{},
		In:    map[string][]*MountEdge{},
	}
}

func (g *Graph) AddNode(n *ContainerNode) {
	if _, ok := g.Nodes[n.ID]; !ok {
		g.Nodes[n.ID] = n
		g.Order = append(g.Order, n.ID)
	}
}

func (g *Graph) AddEdge(e *MountEdge) {
	g.Edges = append(g.Edges, e)
	g.Out[e.Parent] = append(g.Out[e.Parent], e)
	g.In[e.Child] = append(g.In[e.Child], e)
}

// Endpoint is a route handler registered on a container.
type Endpoint struct {
	Container     string `json:"container"`
	Method        string `json:"method"`
	Path          string `json:"path"`
	File          string `json:"file,omitempty"`
	Line          int    `json:"line,omitempty"`
	RequestShape  *Shape `json:"request_shape,omitempty"`
	ResponseShape *Shape `json:"response_shape,omitempty"`
}

// Call is an outbound HTTP call site. URL is the raw expression text as
// extracted, before normalization.
type Call struct {
	URL          string `json:"url"`
	Method       string `json:"method"`
	File         string `json:"file,omitempty"`
	Line         int    `json:"line,omitempty"`
	RequestShape *Shape `json:"request_shape,omitempty"`
}

// ResolvedEndpoint is an Endpoint with its mount-expanded full path.
type ResolvedEndpoint struct {
	Endpoint
	FullPath string `json:"full_path"`
}

// NormalizedURL is the classification of a raw call-site URL.
type NormalizedURL struct {
	Path     string `json:"path"`
	Internal bool   `json:"internal"`
	External bool   `json:"external"`
	EnvVar   string `json:"env_var,omitempty"`
	Base     string `json:"base,omitempty"`
	Original string `json:"original"`
}

// Shape is a structural JSON value. Object fields keep declaration order so
// reports come out in the order the source declared them.
type Shape struct {
	Kind      ShapeKind    `json:"kind"`
	Fields    []ShapeField `json:"fields,omitempty"`
	Elem      *Shape       `json:"elem,omitempty"`
	Primitive string       `json:"primitive,omitempty"`
}

type ShapeField struct {
	Name  string `json:"name"`
	Value *Shape `json:"value"`
}

// Field returns the named object field, or nil.
func (s *Shape) Field(name string) *Shape {
	if s == nil || s.Kind != ShapeObject {
		return nil
	}
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return s.Fields[i].Value
		}
	}
	return nil
}

type FieldMismatch struct {
	Kind     MismatchKind `json:"kind"`
	Path     string       `json:"path"`
	Expected string       `json:"expected,omitempty"`
	Actual   string       `json:"actual,omitempty"`
}

type Issue struct {
	Kind       IssueKind       `json:"kind"`
	Severity   Severity        `json:"severity"`
	Method     string          `json:"method,omitempty"`
	Route      string          `json:"route,omitempty"`
	File       string          `json:"file,omitempty"`
	Line       int             `json:"line,omitempty"`
	Message    string          `json:"message"`
	Mismatches []FieldMismatch `json:"mismatches,omitempty"`
	Evidence   Attrs           `json:"evidence,omitempty"`
}

// FactSet is one analysis input: everything the extractor found in a repo
// (or in several merged repos).
type FactSet struct {
	Containers []ContainerNode `json:"containers"`
	Mounts     []MountEdge     `json:"mounts"`
	Endpoints  []Endpoint      `json:"endpoints"`
	Calls      []Call          `json:"calls"`
}

type Stats struct {
	Containers int `json:"containers"`
	Endpoints  int `json:"endpoints"`
	Calls      int `json:"calls"`
	Issues     int `json:"issues"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
	Advisories int `json:"advisories"`
}

type Report struct {
	Endpoints []ResolvedEndpoint `json:"endpoints"`
	Issues    []Issue            `json:"issues"`
	Warnings  []string           `json:"warnings"`
	Stats     Stats              `json:"stats"`
}
