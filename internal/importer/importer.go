// Package importer creates parsed bookmark trees inside a bookmark store.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dastanaron/bookmark-transfer/internal/apperr"
	"github.com/dastanaron/bookmark-transfer/internal/models"
	"github.com/dastanaron/bookmark-transfer/internal/repository"
)

// Stats counts the nodes created by one import.
type Stats struct {
	Bookmarks int
	Folders   int
}

// Materializer creates bookmarks and folders in a repository
type Materializer struct {
	repo   repository.Repository
	logger *slog.Logger
}

// NewMaterializer creates a new materializer
func NewMaterializer(repo repository.Repository, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{repo: repo, logger: logger}
}

// Materialize creates the tagged top-level folders of forest under the live Bookmarks bar
// and Other bookmarks containers. Untagged top-level entries are ignored.
//
// Nodes are created one at a time in document order, so a folder always exists before
// its children. Bookmarks without a URL are skipped and not counted, since the store
// would create them as folders. On failure the nodes created so far are kept.
func (m *Materializer) Materialize(ctx context.Context, forest []models.ParsedNode) (Stats, error) {
	var stats Stats

	tree, err := m.repo.Tree(ctx)
	if err != nil {
		return stats, apperr.Wrap(apperr.OpImport, apperr.ErrHost, err)
	}

	barID, otherID, err := containers(tree)
	if err != nil {
		return stats, err
	}

	for _, node := range forest {
		folder, ok := node.(*models.ParsedFolder)
		if !ok {
			continue
		}
		var parentID string
		switch {
		case folder.IsBookmarksBar():
			parentID = barID
		case folder.IsOtherBookmarks():
			parentID = otherID
		default:
			m.logger.Debug("skipping untagged top-level folder", "title", folder.Title)
			continue
		}
		if err := m.createChildren(ctx, parentID, folder.Children, &stats); err != nil {
			return stats, err
		}
	}

	m.logger.Info("import finished", "bookmarks", stats.Bookmarks, "folders", stats.Folders)
	return stats, nil
}

func containers(tree []models.BookmarkNode) (string, string, error) {
	if len(tree) == 0 {
		return "", "", &apperr.Error{Op: apperr.OpImport, Kind: apperr.ErrStructure, Err: fmt.Errorf("empty bookmark tree")}
	}
	var barID, otherID string
	for _, child := range tree[0].Children {
		switch child.ID {
		case models.BookmarksBarID:
			barID = child.ID
		case models.OtherBookmarksID:
			otherID = child.ID
		}
	}
	if barID == "" || otherID == "" {
		return "", "", &apperr.Error{Op: apperr.OpImport, Kind: apperr.ErrStructure}
	}
	return barID, otherID, nil
}

func (m *Materializer) createChildren(ctx context.Context, parentID string, nodes []models.ParsedNode, stats *Stats) error {
	for _, node := range nodes {
		if err := m.create(ctx, parentID, node, stats); err != nil {
			return err
		}
	}
	return nil
}

func (m *Materializer) create(ctx context.Context, parentID string, node models.ParsedNode, stats *Stats) error {
	switch n := node.(type) {
	case *models.ParsedBookmark:
		if n.URL == "" {
			m.logger.Debug("skipping bookmark without url", "title", n.Title)
			return nil
		}
		_, err := m.repo.Create(ctx, models.CreateRequest{
			ParentID: parentID,
			Title:    n.Title,
			URL:      n.URL,
			Icon:     n.Icon,
		})
		if err != nil {
			return withOp(apperr.Create(models.ItemTypeBookmark, n.Title, err))
		}
		stats.Bookmarks++
		return nil

	case *models.ParsedFolder:
		id, err := m.repo.Create(ctx, models.CreateRequest{ParentID: parentID, Title: n.Title})
		if err != nil {
			return withOp(apperr.Create(models.ItemTypeFolder, n.Title, err))
		}
		stats.Folders++
		return m.createChildren(ctx, id, n.Children, stats)
	}
	return nil
}

func withOp(err *apperr.Error) *apperr.Error {
	err.Op = apperr.OpImport
	return err
}
