package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	// Get home directory for comparison
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
		errMsg  string
	}{
		{
			name:  "expand home directory with file",
			input: "~/wp/hello.php",
			want:  filepath.Join(homeDir, "wp/hello.php"),
		},
		{
			name:  "expand just tilde",
			input: "~",
			want:  homeDir,
		},
		{
			name:  "expand tilde slash",
			input: "~/",
			want:  homeDir,
		},
		{
			name:  "expand tilde dot",
			input: "~/.",
			want:  homeDir,
		},
		{
			name:  "expand home directory with subdirectory",
			input: "~/Documents",
			want:  filepath.Join(homeDir, "Documents"),
		},
		{
			name:  "absolute path unchanged",
			input: "/absolute/path",
			want:  "/absolute/path",
		},
		{
			name:  "relative path cleaned",
			input: "relative/path",
			want:  "relative/path",
		},
		{
			name:  "current directory path cleaned",
			input: "./current/path",
			want:  "current/path",
		},
		{
			name:  "empty path returns empty",
			input: "",
			want:  "",
		},
		{
			name:  "path with double dots cleaned",
			input: "~/test/../Documents",
			want:  filepath.Join(homeDir, "Documents"),
		},
		{
			name:    "other user home is not supported",
			input:   "~bob/plugins",
			wantErr: true,
			errMsg:  "file path: \"~bob/plugins\" is malformed",
		},
		{
			name:    "malformed tilde path",
			input:   "~x",
			wantErr: true,
			errMsg:  "file path: \"~x\" is malformed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ExpandPath(%q) expected error containing %q, but got no error", tt.input, tt.errMsg)
				} else if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("ExpandPath(%q) error = %q, want error containing %q", tt.input, err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("ExpandPath(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plugin.php")
	if err := os.WriteFile(file, []byte("<?php"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := ResolveDir(dir + "/./")
	if err != nil {
		t.Fatalf("ResolveDir(%q) unexpected error: %v", dir, err)
	}
	if got != dir {
		t.Errorf("ResolveDir(%q) = %q, want %q", dir, got, dir)
	}

	if _, err := ResolveDir(file); err == nil {
		t.Errorf("ResolveDir(%q) expected error for a file", file)
	}
	if _, err := ResolveDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("ResolveDir expected error for a missing directory")
	}
	if _, err := ResolveDir(""); err == nil {
		t.Error("ResolveDir expected error for an empty path")
	}
}
