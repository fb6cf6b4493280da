package repository

import (
	"context"
	"errors"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

// ErrParentNotFolder is returned when a node is created under a bookmark.
var ErrParentNotFolder = errors.New("parent is not a folder")

// Repository is a bookmark store. The tree it returns has a single root (id "0") whose
// children include the Bookmarks bar (id "1") and Other bookmarks (id "2").
type Repository interface {
	// Tree returns the whole bookmark forest.
	Tree(ctx context.Context) ([]models.BookmarkNode, error)
	// Create adds a bookmark, or a folder when req.URL is empty, as the last child
	// of req.ParentID and returns its id.
	Create(ctx context.Context, req models.CreateRequest) (string, error)
	Close() error
}
