package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <check|graph|recheck|restore|nightly> ...")
	}

	switch os.Args[1] {
	case "check":
		RunCheck(os.Args[2:])
	case "graph":
		RunGraph(os.Args[2:])
	case "recheck":
		RunRecheck(os.Args[2:])
	case "restore":
		RunRestore(os.Args[2:])
	case "nightly":
		RunNightlyOnce()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
