package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	tests := []struct {
		version, commit, want string
	}{
		{"dev", "unknown", "dev"},
		{"1.4.0", "abc123", "1.4.0 (abc123)"},
		{"1.4.0", "0123456789abcdef0123", "1.4.0 (0123456789ab)"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Info(); got != tt.want {
			t.Errorf("Info() with %q/%q = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}

func TestFull(t *testing.T) {
	got := Full()
	if !strings.HasSuffix(got, runtime.GOOS+"/"+runtime.GOARCH+")") {
		t.Errorf("Full() = %q, want platform suffix", got)
	}
}
