// Package service is the boundary between the bookmark store and the import/export
// pipeline. Every error it returns is an *apperr.Error.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dastanaron/bookmark-transfer/internal/apperr"
	"github.com/dastanaron/bookmark-transfer/internal/exporter"
	"github.com/dastanaron/bookmark-transfer/internal/format"
	"github.com/dastanaron/bookmark-transfer/internal/importer"
	"github.com/dastanaron/bookmark-transfer/internal/models"
	"github.com/dastanaron/bookmark-transfer/internal/normalize"
	"github.com/dastanaron/bookmark-transfer/internal/parser"
	"github.com/dastanaron/bookmark-transfer/internal/repository"
)

// BookmarkService exports and imports bookmark files
type BookmarkService struct {
	repo         repository.Repository
	normalizer   *normalize.Normalizer
	parser       *parser.Parser
	materializer *importer.Materializer
	logger       *slog.Logger
}

// NewBookmarkService creates a new bookmark service. normalizer may be nil when icon
// data is never exported.
func NewBookmarkService(repo repository.Repository, normalizer *normalize.Normalizer, logger *slog.Logger) *BookmarkService {
	if normalizer == nil {
		normalizer = normalize.NewNormalizer(nil, 0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookmarkService{
		repo:         repo,
		normalizer:   normalizer,
		parser:       parser.NewParser(),
		materializer: importer.NewMaterializer(repo, logger),
		logger:       logger,
	}
}

// WithParser replaces the parser, mostly to pin its clock in tests.
func (s *BookmarkService) WithParser(p *parser.Parser) *BookmarkService {
	s.parser = p
	return s
}

// Tree returns the current bookmark tree
func (s *BookmarkService) Tree(ctx context.Context) ([]models.BookmarkNode, error) {
	tree, err := s.repo.Tree(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.OpExport, apperr.ErrHost, err)
	}
	return tree, nil
}

// Export writes the bookmark tree to w in format f. A non-nil selected set limits the
// export to the checked nodes, see normalize.Select.
func (s *BookmarkService) Export(ctx context.Context, w io.Writer, f format.Format, opts normalize.Options, selected map[string]bool) error {
	if f != format.HTML && f != format.JSON {
		return &apperr.Error{Op: apperr.OpExport, Kind: apperr.ErrUnknownFormat, Err: fmt.Errorf("format %q", f)}
	}

	tree, err := s.Tree(ctx)
	if err != nil {
		return err
	}

	var selection []models.BookmarkNode
	if selected != nil {
		selection = normalize.Select(tree, selected)
	}

	forest, err := s.normalizer.Normalize(ctx, tree, selection, opts)
	if err != nil {
		return apperr.Wrap(apperr.OpExport, nil, err)
	}

	if f == format.HTML {
		err = exporter.WriteHTML(w, forest)
	} else {
		err = exporter.WriteJSON(w, forest)
	}
	if err != nil {
		return apperr.Wrap(apperr.OpExport, nil, err)
	}

	s.logger.Debug("export finished", "format", f, "entries", len(forest))
	return nil
}

// ExportBytes is Export into memory.
func (s *BookmarkService) ExportBytes(ctx context.Context, f format.Format, opts normalize.Options, selected map[string]bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Export(ctx, &buf, f, opts, selected); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse detects the format of content and parses it. Nothing is written to the store.
func (s *BookmarkService) Parse(content []byte, mimeType string) ([]models.ParsedNode, error) {
	var (
		forest []models.ParsedNode
		err    error
	)
	switch f := format.Detect(content, mimeType); f {
	case format.HTML:
		forest, err = s.parser.ParseHTML(bytes.NewReader(content))
	case format.JSON:
		forest, err = s.parser.ParseJSON(content)
	default:
		return nil, &apperr.Error{Op: apperr.OpImport, Kind: apperr.ErrUnknownFormat, Err: fmt.Errorf("mime type %q", mimeType)}
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.OpImport, apperr.ErrParse, err)
	}
	return forest, nil
}

// Import parses content and creates its bookmarks in the store.
func (s *BookmarkService) Import(ctx context.Context, content []byte, mimeType string) (importer.Stats, error) {
	forest, err := s.Parse(content, mimeType)
	if err != nil {
		return importer.Stats{}, err
	}

	stats, err := s.materializer.Materialize(ctx, forest)
	if err != nil {
		return stats, apperr.Wrap(apperr.OpImport, apperr.ErrHost, err)
	}
	return stats, nil
}
