package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dastanaron/bookmark-transfer/internal/favicon"
	"github.com/dastanaron/bookmark-transfer/internal/normalize"
	"github.com/dastanaron/bookmark-transfer/internal/repository"
	"github.com/dastanaron/bookmark-transfer/internal/service"
)

// ConvertCommand converts a bookmark file between formats without touching the database.
// The input is imported into an in-memory store and exported again.
// Icons carried by the input are reused; icons is asked for the rest.
type ConvertCommand struct {
	icons       favicon.Fetcher
	iconSize    int
	concurrency int
	logger      *slog.Logger
	out         io.Writer
}

// NewConvertCommand creates a new convert command. icons may be nil.
func NewConvertCommand(icons favicon.Fetcher, iconSize, concurrency int, logger *slog.Logger, out io.Writer) *ConvertCommand {
	return &ConvertCommand{icons: icons, iconSize: iconSize, concurrency: concurrency, logger: logger, out: out}
}

// Execute converts inPath into outPath, whose extension selects the output format.
// An empty outPath writes an HTML document to the command output.
func (c *ConvertCommand) Execute(ctx context.Context, inPath, mimeType, outPath string, opts normalize.Options) error {
	content, mimeType, err := readInput(inPath, mimeType)
	if err != nil {
		return err
	}

	repo := repository.NewMemoryRepository()
	defer repo.Close()

	normalizer := normalize.NewNormalizer(favicon.Chain(favicon.FetcherFunc(repo.StoredIcon), c.icons), c.iconSize, c.concurrency)
	svc := service.NewBookmarkService(repo, normalizer, c.logger)
	stats, err := svc.Import(ctx, content, mimeType)
	if err != nil {
		return err
	}

	if outPath == "" {
		return NewExportCommand(svc, c.out).Execute(ctx, ExportRequest{Options: opts})
	}
	if err := NewExportCommand(svc, io.Discard).Execute(ctx, ExportRequest{Path: outPath, Options: opts}); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Converted %d bookmarks and %d folders to %s\n", stats.Bookmarks, stats.Folders, outPath)
	return nil
}
