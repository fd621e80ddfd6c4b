package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/routelens/routelens-backend/internal/api_consistency/export"
	"github.com/routelens/routelens-backend/internal/api_consistency/graph"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/mapper"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/parser"
)

// GraphDOT renders the mount graph of a facts document without running the
// full analysis. Useful for quick visual inspection in the frontend.
func (h *Handler) GraphDOT(c *gin.Context) {
	defer c.Request.Body.Close()
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}

	doc, err := parser.ParseFactsBytes(b)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("parse facts: %v", err))
		return
	}
	facts, _ := mapper.ToFactSet(doc)
	g, _ := graph.Build(facts)

	title := c.DefaultQuery("title", doc.Repo)
	dot := export.ToDOT(g, title)

	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}
