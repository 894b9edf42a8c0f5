package repo

import "testing"

func TestValidateRefNameAcceptsWellFormedNames(t *testing.T) {
	for _, name := range []string{
		"refs/heads/main",
		"refs/heads/feature/thing",
		"refs/tags/v1.0",
	} {
		if err := ValidateRefName(name); err != nil {
			t.Errorf("ValidateRefName(%q) = %v, want nil", name, err)
		}
	}
}

func TestValidateRefNameRejectsKnownBadForms(t *testing.T) {
	cases := []string{
		"",
		"refs/heads/main.lock",
		"refs/heads/..",
		"refs/heads/a..b",
		"refs/heads/",
		"refs/.hidden/main",
		"refs/heads/main.",
		"refs/heads/ma~in",
		"refs/heads/ma^in",
		"refs/heads/ma:in",
		"refs/heads/ma?in",
		"refs/heads/ma*in",
		"refs/heads/ma[in",
		"refs/heads/main@{1}",
		"onlyonecomponent",
	}
	for _, name := range cases {
		if err := ValidateRefName(name); err == nil {
			t.Errorf("ValidateRefName(%q) = nil, want error", name)
		}
	}
}

func TestValidateRefNameRejectsControlCharacters(t *testing.T) {
	if err := ValidateRefName("refs/heads/ma\tin"); err == nil {
		t.Fatalf("expected error for embedded tab")
	}
}
