package main

import (
	"flag"
	"fmt"
	"log"
)

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	e, _ := loadEngine(stateDir())

	entries, err := e.History.Load()
	if err != nil {
		fatalHinted(err)
	}
	if len(entries) == 0 {
		fmt.Println("no sync operations recorded yet")
		return
	}
	for _, entry := range entries {
		undone := ""
		if entry.Undone {
			undone = " (undone)"
		}
		fmt.Printf(
			"%s  %-5s  branch=%s  +%d ~%d !%d =%d%s\n",
			entry.Timestamp, entry.Kind, entry.Branch,
			entry.Counts.Added, entry.Counts.Modified, entry.Counts.Conflicts, entry.Counts.Unchanged,
			undone,
		)
	}
}
