package security

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Valid cases
		{"simple", "staging", false},
		{"with dashes", "my-target", false},
		{"with underscores", "my_target", false},
		{"with dots", "prod.eu-west", false},
		{"with numbers", "server42", false},
		{"starts with digit", "01-nightly", false},

		// Invalid cases
		{"empty", "", true},
		{"starts with dash", "-flag", true},
		{"starts with dot", ".hidden", true},
		{"path separator", "a/b", true},
		{"backslash", `a\b`, true},
		{"space", "my target", true},
		{"semicolon", "target;rm", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestContainedPath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{"child", filepath.Join(base, "bin", "release"), filepath.Join(base, "bin", "release"), false},
		{"base itself", base, base, false},
		{"dotdot inside", filepath.Join(base, "bin", "..", "obj"), filepath.Join(base, "obj"), false},
		{"sibling", filepath.Join(base, "..", "other"), "", true},
		{"parent", filepath.Dir(base), "", true},
		{"name starting with dots", filepath.Join(base, "..cache"), filepath.Join(base, "..cache"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContainedPath(base, tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ContainedPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ContainedPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"clean absolute path", "/var/deploy/staging", "/var/deploy/staging", false},
		{"redundant separators", "/var//deploy/./staging/", "/var/deploy/staging", false},
		{"relative path", "deploy/staging", "", true},
		{"traversal", "/var/deploy/../../etc", "", true},
		{"dots in name are fine", "/var/deploy/v1..2", "/var/deploy/v1..2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SanitizePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func BenchmarkValidateName(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ValidateName("staging-eu.west_1")
	}
}
