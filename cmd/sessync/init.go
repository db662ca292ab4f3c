package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jmswd/sessync/internal/scm"
	"github.com/jmswd/sessync/internal/syncstate"
)

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	repo := fs.String("repo", "", "path to the local mirror working tree (required)")
	remote := fs.String("remote", "", "remote URL to clone/push the mirror through (optional)")
	branch := fs.String("branch", "main", "branch the mirror syncs on")
	backend := fs.String("backend", "git", "scm backend: git or hg")
	subdir := fs.String("subdir", syncstate.DefaultSyncSubdirectory, "subdirectory of the mirror sessions sync into")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}
	if *repo == "" {
		fmt.Fprintln(os.Stderr, "sessync init: -repo is required")
		os.Exit(2)
	}

	var scmBackend syncstate.Backend
	var adapter scm.Adapter
	switch *backend {
	case "git":
		scmBackend = syncstate.BackendGit
		adapter = scm.NewGitAdapter(*repo)
	case "hg":
		scmBackend = syncstate.BackendHg
		adapter = scm.NewHgAdapter(*repo)
	default:
		fmt.Fprintf(os.Stderr, "sessync init: unknown backend %q (want git or hg)\n", *backend)
		os.Exit(2)
	}

	if err := adapter.Init(context.Background(), *repo, *remote); err != nil {
		fatalHinted(err)
	}

	root := stateDir()
	if err := os.MkdirAll(root, 0o755); err != nil {
		log.Fatalf("creating state directory %s: %v", root, err)
	}

	var remoteURL *string
	if *remote != "" {
		remoteURL = remote
	}
	state := syncstate.State{
		RepoPath:         *repo,
		RemoteURL:        remoteURL,
		Branch:           *branch,
		ScmBackend:       scmBackend,
		SyncSubdirectory: *subdir,
	}
	statePath := filepath.Join(root, "state.json")
	if err := syncstate.Save(statePath, state); err != nil {
		log.Fatalf("writing %s: %v", statePath, err)
	}

	fmt.Printf("initialized sessync state at %s (mirror: %s, backend: %s)\n", statePath, *repo, *backend)
}
