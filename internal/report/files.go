package report

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/salesbot/internal/model"
)

// Summary file names inside the output directory.
const (
	JSONFileName     = "summary.json"
	MarkdownFileName = "summary.md"
)

// WriteFiles writes the JSON and Markdown summaries into dir concurrently and
// returns the resulting artifacts in that order. The report is only read.
func WriteFiles(ctx context.Context, report *model.RunReport, dir, version string) ([]model.Artifact, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	targets := []struct {
		name string
		make func(f *bufio.Writer) Writer
	}{
		{JSONFileName, func(f *bufio.Writer) Writer { return NewJSONWriter(f, WithPrettyPrint(), WithVersion(version)) }},
		{MarkdownFileName, func(f *bufio.Writer) Writer { return NewMarkdownWriter(f) }},
	}

	artifacts := make([]model.Artifact, len(targets))
	g, ctx := errgroup.WithContext(ctx)

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, target.name)
			if err := writeFile(path, report, target.make); err != nil {
				return err
			}
			a, err := model.NewArtifact(model.ArtifactSummary, path)
			if err != nil {
				return err
			}
			artifacts[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func writeFile(path string, report *model.RunReport, makeWriter func(*bufio.Writer) Writer) error {
	f, err := os.Create(path) //nolint:gosec // path is built from configuration
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	buf := bufio.NewWriter(f)
	if _, err := makeWriter(buf).Write(report); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
