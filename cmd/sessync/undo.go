package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
)

func runUndo(args []string) {
	fs := flag.NewFlagSet("undo", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}
	if fs.NArg() != 1 || (fs.Arg(0) != "push" && fs.Arg(0) != "pull") {
		fmt.Fprintln(os.Stderr, "usage: sessync undo <push|pull>")
		os.Exit(2)
	}
	kind := fs.Arg(0)

	e, _ := loadEngine(stateDir())

	if err := e.Undo(context.Background(), kind); err != nil {
		fatalHinted(err)
	}
	fmt.Printf("undid last %s\n", kind)
}
