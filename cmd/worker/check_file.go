package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/api_consistency/scoring"
	consistency "github.com/routelens/routelens-backend/internal/api_consistency/service"
)

// RunCheck analyzes a facts file and writes the run artifacts to outDir.
func RunCheck(args []string) {
	if len(args) < 1 {
		panic("usage: check <factsFile> [outDir] [title]")
	}
	path := args[0]
	out := "out"
	if len(args) > 1 {
		out = args[1]
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(args) > 2 {
		title = args[2]
	}

	cfg, err := loadClassify()
	if err != nil {
		panic(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	res, err := consistency.AnalyzeFactsBytesToDir(b, out, title, os.Getenv("DOT_BIN"), cfg)
	if err != nil {
		panic(err)
	}

	sum := scoring.Summarize(res.Report)
	fmt.Printf("Wrote: %s\n", res.DOTPath)
	if res.SVGPath != "" {
		fmt.Printf("Wrote: %s\n", res.SVGPath)
	}
	fmt.Printf("Score: %d (%s)\n", sum.Score, sum.Grade)
	printIssues(res)

	// CI gate: broken call paths fail the run, warnings and advisories pass.
	if res.Report.Stats.Errors > 0 {
		os.Exit(1)
	}
}

func printIssues(res *consistency.Result) {
	fmt.Printf("Issues (%d):\n", len(res.Report.Issues))
	for _, issue := range res.Report.Issues {
		fmt.Printf(" - [%s] %s %s %s: %s\n",
			issue.Severity, issue.Kind, issue.Method, issue.Route, issue.Message)
	}
	for _, w := range res.Report.Warnings {
		fmt.Printf(" ! %s\n", w)
	}
}

func loadClassify() (classify.Config, error) {
	if p := os.Getenv("CLASSIFY_CONFIG"); p != "" {
		return classify.Load(p)
	}
	return classify.Defaults(), nil
}
