package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/jmswd/sessync/internal/sync"
)

func runPush(args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	message := fs.String("message", "", "commit message (default: auto-generated)")
	branch := fs.String("branch", "", "branch to commit to (default: current branch)")
	excludeAttachments := fs.Bool("exclude-attachments", false, "exclude non-.jsonl attachment files")
	pushRemote := fs.Bool("push-remote", true, "push the commit to the configured remote")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	e, remoteConfigured := loadEngine(stateDir())

	result, err := e.Push(context.Background(), sync.Options{
		Message: *message, Branch: *branch,
		ExcludeAttachments: *excludeAttachments,
		PushRemote:         *pushRemote, RemoteConfigured: remoteConfigured,
	})
	if err != nil {
		fatalHinted(err)
	}

	fmt.Printf(
		"pushed to %s: %d added, %d modified, %d unchanged (head %s)\n",
		result.Branch, result.Counts.Added, result.Counts.Modified, result.Counts.Unchanged, shortHead(result.HeadAfter),
	)
	if result.PushErr != nil {
		fmt.Printf("warning: commit retained locally but remote push failed: %v\n", result.PushErr)
	} else if result.Pushed {
		fmt.Println("pushed to remote")
	}
}

func shortHead(head string) string {
	if len(head) > 10 {
		return head[:10]
	}
	if head == "" {
		return "(none)"
	}
	return head
}
