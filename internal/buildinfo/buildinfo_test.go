package buildinfo

import (
	"strings"
	"testing"
)

func TestShortPrefersVersion(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "v1.2.3", "0123456789abcdef"
	if got := Short(); got != "v1.2.3" {
		t.Fatalf("Short() = %q", got)
	}
	Version = "dev"
	if got := Short(); got != "0123456789ab" {
		t.Fatalf("Short() = %q, want truncated commit", got)
	}
	if !strings.Contains(String(), "commit 0123456789abcdef") {
		t.Fatalf("String() = %q", String())
	}
}
