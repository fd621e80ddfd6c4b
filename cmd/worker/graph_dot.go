package main

import (
	"fmt"
	"os"

	"github.com/routelens/routelens-backend/internal/api_consistency/export"
	"github.com/routelens/routelens-backend/internal/api_consistency/graph"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/mapper"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/parser"
)

// RunGraph renders the mount graph of a facts file as DOT.
func RunGraph(args []string) {
	if len(args) < 1 {
		panic("usage: graph <factsFile> [outPath]")
	}
	out := "graph.dot"
	if len(args) > 1 {
		out = args[1]
	}
	if err := writeDOT(args[0], out); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote: %s\n", out)
}

func writeDOT(inPath, outPath string) error {
	b, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	doc, err := parser.ParseFactsBytes(b)
	if err != nil {
		return err
	}
	facts, _ := mapper.ToFactSet(doc)
	g, _ := graph.Build(facts)
	dot := export.ToDOT(g, doc.Repo)
	return os.WriteFile(outPath, []byte(dot), 0o644)
}
