package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dastanaron/bookmark-transfer/internal/format"
	"github.com/dastanaron/bookmark-transfer/internal/models"
	"github.com/dastanaron/bookmark-transfer/internal/normalize"
	"github.com/dastanaron/bookmark-transfer/internal/service"
)

// ExportRequest describes one export run.
type ExportRequest struct {
	// Path of the output file; empty writes the document to the command output.
	Path string
	// Format overrides the format guessed from the Path extension.
	Format  format.Format
	Options normalize.Options
	// Selected limits the export to these node ids when non-empty.
	Selected []string
}

// ExportCommand handles bookmark export to HTML or JSON files
type ExportCommand struct {
	svc *service.BookmarkService
	out io.Writer
}

// NewExportCommand creates a new export command
func NewExportCommand(svc *service.BookmarkService, out io.Writer) *ExportCommand {
	return &ExportCommand{svc: svc, out: out}
}

// Execute exports bookmarks
func (c *ExportCommand) Execute(ctx context.Context, req ExportRequest) error {
	f := resolveFormat(req.Format, req.Path)

	var selected map[string]bool
	if len(req.Selected) > 0 {
		selected = make(map[string]bool, len(req.Selected))
		for _, id := range req.Selected {
			selected[id] = true
		}
	}

	if req.Path == "" {
		return c.svc.Export(ctx, c.out, f, req.Options, selected)
	}

	data, err := c.svc.ExportBytes(ctx, f, req.Options, selected)
	if err != nil {
		return err
	}
	if err := writeFile(req.Path, data); err != nil {
		return err
	}

	count, err := c.count(ctx, selected)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Exported %d bookmarks to %s\n", count, req.Path)
	return nil
}

func (c *ExportCommand) count(ctx context.Context, selected map[string]bool) (int, error) {
	tree, err := c.svc.Tree(ctx)
	if err != nil {
		return 0, err
	}
	if selected != nil {
		return normalize.CountBookmarks(normalize.Select(tree, selected)), nil
	}
	if len(tree) == 0 {
		return 0, nil
	}

	count := 0
	for _, root := range tree[0].Children {
		if models.IsReservedRoot(root.ID) {
			count += normalize.CountBookmarks(root.Children)
		}
	}
	return count, nil
}

// resolveFormat picks the explicit format, then the one implied by path, then HTML.
func resolveFormat(f format.Format, path string) format.Format {
	if f == format.HTML || f == format.JSON {
		return f
	}
	if byExt := format.ByExtension(filepath.Ext(path)); byExt != format.Unknown {
		return byExt
	}
	if f == "" {
		return format.HTML
	}
	return f
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot create file: %w", err)
	}
	return nil
}
