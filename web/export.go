package web

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"wpcompare/archive"
	"wpcompare/compare"
)

// ExportRequest selects the trees whose local changes are exported
type ExportRequest struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path,omitempty"`
	Slug       string `json:"slug,omitempty"`
	Version    string `json:"version,omitempty"`
}

// ExportResult describes the archive written by an export
type ExportResult struct {
	Message    string `json:"message"`
	OutputPath string `json:"outputPath"`
	FilesAdded int    `json:"filesAdded"`
	Skipped    int    `json:"filesSkipped"`
	ZipSize    int64  `json:"zipSize"`
}

// exportHandler zips the local files that differ from or are missing in the
// published version, for review or for sending upstream.
func (s *Server) exportHandler(c rweb.Context) error {
	var req ExportRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		c.Response().SetStatus(http.StatusBadRequest)
		return c.WriteJSON(map[string]string{"error": "Invalid request"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	res, err := s.export(ctx, req)
	if err != nil {
		logger.LogErr(err, "export failed")
		c.Response().SetStatus(statusFor(err))
		return c.WriteJSON(map[string]string{"error": err.Error()})
	}
	return c.WriteJSON(res)
}

func (s *Server) export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if req.LocalPath == "" {
		return nil, serr.New("local_path is required")
	}
	pc, err := s.compare(ctx, queryInput(map[string]string{
		"local_path":  req.LocalPath,
		"remote_path": req.RemotePath,
		"slug":        req.Slug,
		"version":     req.Version,
	}))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, fc := range pc.Files {
		if fc.Status == compare.StatusDifferent || fc.Status == compare.StatusLocalOnly {
			files = append(files, fc.File)
		}
	}
	if len(files) == 0 {
		return &ExportResult{Message: "No local changes to export"}, nil
	}

	if err := os.MkdirAll(s.deps.ExportDir, 0755); err != nil {
		return nil, serr.Wrap(err, "failed to create export directory", "dir", s.deps.ExportDir)
	}
	name := filepath.Base(pc.LocalPath) + "-changes-" + uuid.NewString()[:8] + ".zip"
	outputPath := filepath.Join(s.deps.ExportDir, name)

	zipFile, err := os.Create(outputPath)
	if err != nil {
		return nil, serr.Wrap(err, "failed to create zip file", "path", outputPath)
	}
	added, err := archive.WriteZip(zipFile, pc.LocalPath, files)
	if cerr := zipFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outputPath)
		return nil, serr.Wrap(err, "failed to write zip file", "path", outputPath)
	}

	var zipSize int64
	if info, err := os.Stat(outputPath); err == nil {
		zipSize = info.Size()
	}

	logger.Info("Exported local changes", "path", outputPath, "files", strconv.Itoa(added))
	return &ExportResult{
		Message:    "Created " + name + " with " + strconv.Itoa(added) + " files",
		OutputPath: outputPath,
		FilesAdded: added,
		Skipped:    len(files) - added,
		ZipSize:    zipSize,
	}, nil
}
