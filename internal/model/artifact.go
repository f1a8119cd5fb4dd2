package model

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/sha3"
)

// ArtifactKind identifies what an output file contains.
type ArtifactKind string

const (
	// ArtifactSpreadsheet is the downloaded sales workbook.
	ArtifactSpreadsheet ArtifactKind = "spreadsheet"

	// ArtifactScreenshot is the results page screenshot.
	ArtifactScreenshot ArtifactKind = "screenshot"

	// ArtifactDocument is the rendered sales results PDF.
	ArtifactDocument ArtifactKind = "document"

	// ArtifactSummary is a run summary file (JSON or Markdown).
	ArtifactSummary ArtifactKind = "summary"
)

// Artifact is a file written during a run. Files are write-once per run
// and overwritten when the task runs again.
type Artifact struct {
	// Kind says what the file contains.
	Kind ArtifactKind `json:"kind"`

	// Path is where the file was written.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// SHA3 is the hex SHA3-256 digest of the file contents.
	// It is recorded for comparison between runs, never verified.
	SHA3 string `json:"sha3"`
}

// NewArtifact stats and fingerprints the file at path.
func NewArtifact(kind ArtifactKind, path string) (Artifact, error) {
	f, err := os.Open(path) //nolint:gosec // paths come from configuration
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	h := sha3.New256()
	n, err := io.Copy(h, f)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to fingerprint artifact: %w", err)
	}

	return Artifact{
		Kind: kind,
		Path: path,
		Size: n,
		SHA3: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
