// Package compare classifies every file of a local plugin tree against a
// reference (published) tree and renders the result.
package compare

import (
	"encoding/json"
)

// Status is the relationship of one relative path between the two trees
type Status string

const (
	StatusIdentical  Status = "identical"
	StatusDifferent  Status = "different"
	StatusLocalOnly  Status = "local_only"
	StatusRemoteOnly Status = "remote_only"
)

// FileComparison is the outcome for one relative path present in either tree.
// Sizes are nil when the file is absent on that side or could not be statted.
type FileComparison struct {
	File       string `json:"file" yaml:"file"`
	Status     Status `json:"status" yaml:"status"`
	Diff       string `json:"diff,omitempty" yaml:"diff,omitempty"`
	LocalSize  *int64 `json:"localSize,omitempty" yaml:"localSize,omitempty"`
	RemoteSize *int64 `json:"remoteSize,omitempty" yaml:"remoteSize,omitempty"`
}

// Summary holds per-status counts. Total is the number of distinct paths.
type Summary struct {
	Identical  int `json:"identical" yaml:"identical"`
	Different  int `json:"different" yaml:"different"`
	LocalOnly  int `json:"localOnly" yaml:"localOnly"`
	RemoteOnly int `json:"remoteOnly" yaml:"remoteOnly"`
	Total      int `json:"total" yaml:"total"`
}

// PluginComparison is the result of one comparison run.
// Files is sorted by File and never holds the same path twice.
type PluginComparison struct {
	LocalPath  string           `json:"localPath" yaml:"localPath"`
	RemotePath string           `json:"remotePath" yaml:"remotePath"`
	Files      []FileComparison `json:"files" yaml:"files"`
	Summary    Summary          `json:"summary" yaml:"summary"`
}

// Find returns the entry for a relative path
func (pc *PluginComparison) Find(file string) (FileComparison, bool) {
	for _, fc := range pc.Files {
		if fc.File == file {
			return fc, true
		}
	}
	return FileComparison{}, false
}

// WithStatus returns the entries having the given status, in result order
func (pc *PluginComparison) WithStatus(status Status) []FileComparison {
	var out []FileComparison
	for _, fc := range pc.Files {
		if fc.Status == status {
			out = append(out, fc)
		}
	}
	return out
}

// JSON returns the indented JSON form of the comparison
func (pc *PluginComparison) JSON() ([]byte, error) {
	return json.MarshalIndent(pc, "", "  ")
}

// add records one entry in the summary
func (s *Summary) add(status Status) {
	switch status {
	case StatusIdentical:
		s.Identical++
	case StatusDifferent:
		s.Different++
	case StatusLocalOnly:
		s.LocalOnly++
	case StatusRemoteOnly:
		s.RemoteOnly++
	}
	s.Total++
}
