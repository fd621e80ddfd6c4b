package main

import (
	"context"
	"fmt"
	"log"
)

// RunRestore replays a project's mirrored artifacts from S3 back into the
// exchange cache, e.g. after a Redis wipe.
func RunRestore(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker restore <project-id>")
	}
	project := args[0]

	ctx := context.Background()
	deps, err := buildDeps(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer deps.close()

	n, err := deps.exchange.RestoreFromMirror(ctx, project)
	if err != nil {
		log.Fatalf("restore %s: %v", project, err)
	}

	fmt.Printf("Restored %d artifact(s) for %s\n", n, project)
}
