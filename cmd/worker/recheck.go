package main

import (
	"context"
	"fmt"
	"log"

	"github.com/routelens/routelens-backend/internal/api_consistency/scoring"
	"github.com/routelens/routelens-backend/internal/schedule"
)

// RunRecheck reruns the cross-repo consistency check for one project from
// its latest uploaded artifacts.
func RunRecheck(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker recheck <project-id>")
	}
	project := args[0]

	ctx := context.Background()
	deps, err := buildDeps(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer deps.close()

	res, err := deps.exchange.Recheck(ctx, project)
	if err != nil {
		log.Fatalf("recheck %s: %v", project, err)
	}

	sum := scoring.Summarize(res.Report)
	fmt.Printf("Project %s: score %d (%s)\n", project, sum.Score, sum.Grade)
	printIssues(res)
}

// RunNightlyOnce triggers the nightly recheck-and-prune cycle immediately
// instead of waiting for the cron spec.
func RunNightlyOnce() {
	ctx := context.Background()
	deps, err := buildDeps(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer deps.close()

	sched := schedule.NewScheduler(deps.reports, deps.exchange,
		deps.cfg.Consistency.RecheckSpec, deps.cfg.Consistency.ReportKeep)
	sched.RunNightly()
}
