package repo

import (
	"path/filepath"
	"testing"

	"github.com/vcsdb/gitkernel/pkg/object"
)

func TestInitAndOpen(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")

	r, err := Init(gitDir, root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if r.IsBare() {
		t.Fatalf("fresh non-bare Init reported bare")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2, err := Open(gitDir, root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r2.Close()
	if r2.GitDir() != gitDir {
		t.Fatalf("GitDir = %q, want %q", r2.GitDir(), gitDir)
	}
	wt, err := r2.WorkTree()
	if err != nil || wt != root {
		t.Fatalf("WorkTree = %q, %v, want %q", wt, err, root)
	}
}

func TestInitRejectsExistingGitDir(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	if _, err := Init(gitDir, root); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if _, err := Init(gitDir, root); err == nil {
		t.Fatalf("expected second Init to fail")
	}
}

func TestBareRepositoryHasNoWorkTree(t *testing.T) {
	gitDir := t.TempDir()
	r, err := Init(gitDir, "")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer r.Close()
	if !r.IsBare() {
		t.Fatalf("expected bare repository")
	}
	if _, err := r.WorkTree(); err == nil {
		t.Fatalf("expected NoWorkTreeError from WorkTree")
	} else if _, ok := err.(*NoWorkTreeError); !ok {
		t.Fatalf("WorkTree error = %T, want *NoWorkTreeError", err)
	}
	if _, err := r.IndexFile(); err == nil {
		t.Fatalf("expected NoWorkTreeError from IndexFile")
	} else if _, ok := err.(*NoWorkTreeError); !ok {
		t.Fatalf("IndexFile error = %T, want *NoWorkTreeError", err)
	}
}

func TestRetainCloseUseCount(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	r, err := Init(gitDir, root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	r.Retain()
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	// One Retain above absorbed one Close; the object database should
	// still be live until the matching second Close.
	if _, err := r.Objects().Has(object.ObjectId{}); err != nil {
		t.Fatalf("Has after first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestGetBranchFollowsHeadSymbolicTarget(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	r, err := Init(gitDir, root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer r.Close()

	name, ok := r.GetBranch()
	if !ok || name != "main" {
		t.Fatalf("GetBranch() = %q, %v, want main, true", name, ok)
	}
}

func TestSimplifyStripsKnownPrefixes(t *testing.T) {
	cases := map[string]string{
		"refs/heads/main":              "main",
		"refs/tags/v1":                 "v1",
		"refs/remotes/origin/main":     "origin/main",
		"refs/remotes/origin/HEAD":     "origin/HEAD",
		"refs/notes/commits":           "notes/commits",
		"HEAD":                         "HEAD",
		"refs/heads/feature/sub/nest":  "feature/sub/nest",
	}
	for in, want := range cases {
		if got := Simplify(in); got != want {
			t.Errorf("Simplify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpstreamFromConfig(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	r, err := Init(gitDir, root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer r.Close()

	cfg := r.Config()
	cfg.Set("branch", "main", "remote", "origin")
	cfg.Set("branch", "main", "merge", "refs/heads/main")
	if err := r.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	tracking, ok := r.Upstream("main")
	if !ok || tracking != "refs/remotes/origin/main" {
		t.Fatalf("Upstream(main) = %q, %v, want refs/remotes/origin/main, true", tracking, ok)
	}

	if _, ok := r.Upstream("feature"); ok {
		t.Fatalf("Upstream(feature) should be unset")
	}
}
