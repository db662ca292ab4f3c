package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmswd/sessync/internal/sync"
)

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	debounce := fs.Duration("debounce", 2*time.Second, "quiet period after a change before pushing")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	e, _ := loadEngine(stateDir())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		log.Println("watch: shutting down")
		cancel()
	}()

	fmt.Printf("watching %s (debounce %s); ctrl-c to stop\n", e.LocalRoot, *debounce)
	err := e.WatchAndSync(ctx, *debounce, func(result sync.PushResult, err error) {
		if err != nil {
			log.Printf("watch: push failed: %v", err)
			return
		}
		if result.Counts.Added+result.Counts.Modified == 0 {
			return
		}
		fmt.Printf(
			"pushed to %s: %d added, %d modified (head %s)\n",
			result.Branch, result.Counts.Added, result.Counts.Modified, shortHead(result.HeadAfter),
		)
	})
	if err != nil {
		fatalHinted(err)
	}
}
