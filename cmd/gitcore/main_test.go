package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vcsdb/gitkernel/pkg/object"
	"github.com/vcsdb/gitkernel/pkg/refs"
	"github.com/vcsdb/gitkernel/pkg/repo"
)

func chdirForTest(t *testing.T, dir string) func() {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
	return func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore cwd %s: %v", wd, err)
		}
	}
}

func sigLine() string { return "a <a@b> 0 +0000" }

// initRepoWithCommit creates a repository at dir/.git with one commit on
// refs/heads/main and HEAD pointing at it, returning the commit id.
func initRepoWithCommit(t *testing.T, dir string) object.ObjectId {
	t.Helper()
	gitDir := filepath.Join(dir, ".git")
	r, err := repo.Init(gitDir, dir)
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}
	defer r.Close()

	ins := r.Objects().NewInserter()
	treeID, err := ins.Insert(object.TypeTree, object.MarshalTree(&object.Tree{}))
	if err != nil {
		t.Fatalf("insert tree: %v", err)
	}
	commitID, err := ins.Insert(object.TypeCommit, []byte(
		"tree "+treeID.String()+"\nauthor "+sigLine()+"\ncommitter "+sigLine()+"\n\ninitial\n"))
	if err != nil {
		t.Fatalf("insert commit: %v", err)
	}
	if err := ins.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := ins.Close(); err != nil {
		t.Fatalf("close inserter: %v", err)
	}

	if _, err := refs.NewUpdate(r.Refs(), "refs/heads/main", commitID).Execute(); err != nil {
		t.Fatalf("update refs/heads/main: %v", err)
	}
	return commitID
}
