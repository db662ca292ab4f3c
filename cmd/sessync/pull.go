package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/jmswd/sessync/internal/conflict"
	"github.com/jmswd/sessync/internal/sync"
)

func runPull(args []string) {
	fs := flag.NewFlagSet("pull", flag.ExitOnError)
	branch := fs.String("branch", "", "branch to fetch (default: current branch)")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	e, _ := loadEngine(stateDir())

	result, err := e.Pull(context.Background(), sync.Options{Branch: *branch})
	if err != nil {
		fatalHinted(err)
	}

	fmt.Printf(
		"pulled: %d added, %d modified, %d conflicts, %d unchanged\n",
		result.Counts.Added, result.Counts.Modified, result.Counts.Conflicts, result.Counts.Unchanged,
	)
	for _, r := range result.Resolutions {
		if r.Hazard != "" {
			fmt.Printf("  %s: %s (hazard: %s)\n", r.SessionID, r.Strategy, r.Hazard)
		} else if r.Strategy != conflict.SmartMerge {
			fmt.Printf("  %s: %s\n", r.SessionID, r.Strategy)
		}
	}
}
