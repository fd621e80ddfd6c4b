// Package routing indexes resolved endpoints by parameter-normalized path.
// Endpoints that differ only in parameter names (":id" vs ":userId") collapse
// onto the same table entry, which is what lets a call site with an
// interpolated id find an endpoint declared with a differently named param.
package routing

import (
	"fmt"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

// Entry pairs an endpoint with its index in the slice the table was built
// from, so callers can track referenced/orphaned state by index.
type Entry struct {
	Index    int
	Endpoint *domain.ResolvedEndpoint
}

type node struct {
	literals map[string]*node
	param    *node
	leaf     []Entry
}

func newNode() *node {
	return &node{literals: map[string]*node{}}
}

type Table struct {
	root    *node
	entries []Entry
	skipped []int
}

// NewTable builds the route table. Endpoints whose full path is not a valid
// pattern are excluded (from the table and from orphan tracking) and reported
// as warnings; a bad record never fails the build.
func NewTable(eps []domain.ResolvedEndpoint) (*Table, []string) {
	t := &Table{root: newNode()}
	var warnings []string

	for i := range eps {
		ep := &eps[i]
		segs, err := patternSegments(ep.FullPath)
		if err != nil {
			t.skipped = append(t.skipped, i)
			warnings = append(warnings, fmt.Sprintf(
				"endpoint %s %s excluded from matching: %v", ep.Method, ep.FullPath, err))
			continue
		}

		cur := t.root
		for _, seg := range segs {
			if isParamSegment(seg) {
				if cur.param == nil {
					cur.param = newNode()
				}
				cur = cur.param
				continue
			}
			next, ok := cur.literals[seg]
			if !ok {
				next = newNode()
				cur.literals[seg] = next
			}
			cur = next
		}
		e := Entry{Index: i, Endpoint: ep}
		cur.leaf = append(cur.leaf, e)
		t.entries = append(t.entries, e)
	}
	return t, warnings
}

// Lookup walks the trie with the given (already cleaned) path. Literal
// segments win over parameter segments; a parameter segment in the lookup
// path only matches a parameter segment in the table. Returns every endpoint
// registered at the matched path, any method, in declaration order.
func (t *Table) Lookup(path string) []Entry {
	return lookup(t.root, lookupSegments(path))
}

// Entries returns every indexed endpoint in declaration order.
func (t *Table) Entries() []Entry { return t.entries }

// Skipped returns the indexes of endpoints excluded by invalid patterns.
func (t *Table) Skipped() []int { return t.skipped }

func lookup(n *node, segs []string) []Entry {
	if len(segs) == 0 {
		if len(n.leaf) > 0 {
			return n.leaf
		}
		return nil
	}
	seg, rest := segs[0], segs[1:]
	if isParamSegment(seg) {
		if n.param != nil {
			return lookup(n.param, rest)
		}
		return nil
	}
	if next, ok := n.literals[seg]; ok {
		if r := lookup(next, rest); r != nil {
			return r
		}
	}
	if n.param != nil {
		return lookup(n.param, rest)
	}
	return nil
}

func patternSegments(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("pattern must start with /")
	}
	if path == "/" {
		return nil, nil
	}
	segs := strings.Split(path[1:], "/")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("empty segment")
		}
		if seg == ":" || seg == "{}" {
			return nil, fmt.Errorf("unnamed parameter segment")
		}
	}
	return segs, nil
}

func lookupSegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	out := make([]string, 0, 8)
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func isParamSegment(seg string) bool {
	if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
		return true
	}
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}
