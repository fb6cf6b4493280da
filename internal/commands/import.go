package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dastanaron/bookmark-transfer/internal/format"
	"github.com/dastanaron/bookmark-transfer/internal/service"
)

// ImportCommand handles bookmark import from HTML or JSON files
type ImportCommand struct {
	svc *service.BookmarkService
	out io.Writer
}

// NewImportCommand creates a new import command
func NewImportCommand(svc *service.BookmarkService, out io.Writer) *ImportCommand {
	return &ImportCommand{svc: svc, out: out}
}

// Execute imports bookmarks from filePath. An empty mimeType is guessed from the extension.
func (c *ImportCommand) Execute(ctx context.Context, filePath, mimeType string) error {
	content, mimeType, err := readInput(filePath, mimeType)
	if err != nil {
		return err
	}

	stats, err := c.svc.Import(ctx, content, mimeType)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Imported %d bookmarks and %d folders.\n", stats.Bookmarks, stats.Folders)
	return nil
}

func readInput(filePath, mimeType string) ([]byte, string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open file: %w", err)
	}
	if mimeType == "" {
		mimeType = format.TypeByExtension(filepath.Ext(filePath))
	}
	return content, mimeType, nil
}
