package repo

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseConfigSectionsAndSubsections(t *testing.T) {
	doc := `
[core]
	bare = false
	repositoryformatversion = 0
[branch "main"]
	remote = origin
	merge = refs/heads/main
`
	cfg, err := ParseConfig(bufio.NewReader(strings.NewReader(doc)))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if v, ok := cfg.Get("core", "", "bare"); !ok || v != "false" {
		t.Fatalf("core.bare = %q, %v, want false, true", v, ok)
	}
	if v, ok := cfg.Get("branch", "main", "remote"); !ok || v != "origin" {
		t.Fatalf("branch.main.remote = %q, %v, want origin, true", v, ok)
	}
}

func TestParseConfigBooleanShorthand(t *testing.T) {
	doc := "[core]\n\tbare\n"
	cfg, err := ParseConfig(bufio.NewReader(strings.NewReader(doc)))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if v, ok := cfg.Get("core", "", "bare"); !ok || v != "true" {
		t.Fatalf("core.bare = %q, %v, want true, true (bare key with no value)", v, ok)
	}
}

func TestParseConfigRejectsEntryOutsideSection(t *testing.T) {
	doc := "key = value\n"
	if _, err := ParseConfig(bufio.NewReader(strings.NewReader(doc))); err == nil {
		t.Fatalf("expected error for entry outside any section")
	}
}

func TestConfigSetOverwritesExistingKey(t *testing.T) {
	cfg := newConfig()
	cfg.Set("core", "", "bare", "false")
	cfg.Set("core", "", "bare", "true")
	v, ok := cfg.Get("core", "", "bare")
	if !ok || v != "true" {
		t.Fatalf("Get after overwrite = %q, %v, want true, true", v, ok)
	}
}

func TestConfigRoundTripsThroughWriteAndParse(t *testing.T) {
	cfg := newConfig()
	cfg.Set("core", "", "bare", "false")
	cfg.Set("branch", "main", "remote", "origin")

	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	if err := cfg.Write(w); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reparsed, err := ParseConfig(bufio.NewReader(strings.NewReader(sb.String())))
	if err != nil {
		t.Fatalf("ParseConfig(round-trip): %v", err)
	}
	if v, ok := reparsed.Get("branch", "main", "remote"); !ok || v != "origin" {
		t.Fatalf("round-tripped branch.main.remote = %q, %v, want origin, true", v, ok)
	}
}

func TestConfigUpstreamDefaultRemote(t *testing.T) {
	cfg := newConfig()
	cfg.Set("branch", "feature", "remote", ".")
	cfg.Set("branch", "feature", "merge", "refs/heads/trunk")

	tracking, ok := cfg.Upstream("feature")
	if !ok || tracking != "refs/heads/trunk" {
		t.Fatalf("Upstream(feature) = %q, %v, want refs/heads/trunk, true (remote \".\" means local)", tracking, ok)
	}
}

func TestConfigUpstreamMissingReturnsNotOK(t *testing.T) {
	cfg := newConfig()
	if _, ok := cfg.Upstream("nonexistent"); ok {
		t.Fatalf("Upstream(nonexistent) should report ok=false")
	}
}
