// Package normalize turns a host bookmark tree into the export tree the serializers render.
//
// Rules, applied depth-first:
//   - bookmarks are copied; dates become whole seconds or are dropped, icons are attached on request;
//   - with HideParentFolder every folder except the two reserved roots is replaced by its children;
//   - with HideOtherBookmarks the Other bookmarks wrapper is replaced by its children, which then
//     sit next to the Bookmarks bar.
package normalize

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dastanaron/bookmark-transfer/internal/favicon"
	"github.com/dastanaron/bookmark-transfer/internal/models"
)

// Options is the export policy.
type Options struct {
	IncludeIconData    bool
	IncludeDates       bool
	HideOtherBookmarks bool
	HideParentFolder   bool
}

// DefaultOptions matches the defaults of a fresh install.
func DefaultOptions() Options {
	return Options{
		IncludeDates:       true,
		HideOtherBookmarks: true,
	}
}

const defaultConcurrency = 8

// Normalizer builds export trees.
type Normalizer struct {
	icons       favicon.Fetcher
	iconSize    int
	concurrency int
}

// NewNormalizer creates a normalizer. icons may be nil when icon data is never requested.
func NewNormalizer(icons favicon.Fetcher, iconSize, concurrency int) *Normalizer {
	if icons == nil {
		icons = favicon.None
	}
	if iconSize <= 0 {
		iconSize = favicon.DefaultSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Normalizer{icons: icons, iconSize: iconSize, concurrency: concurrency}
}

// Normalize builds the export forest. With a nil selection the reserved roots of tree are
// walked; otherwise only the selected nodes are. The host tree is never modified.
func (n *Normalizer) Normalize(ctx context.Context, tree, selection []models.BookmarkNode, opts Options) ([]models.ExportNode, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)

	w := &walker{ctx: gctx, n: n, opts: opts, g: g}

	var top []models.BookmarkNode
	if selection != nil {
		top = selection
	} else if len(tree) > 0 {
		for _, child := range tree[0].Children {
			if models.IsReservedRoot(child.ID) {
				top = append(top, child)
			}
		}
	}

	out := make([]models.ExportNode, 0, len(top))
	for i := range top {
		out = append(out, w.node(&top[i])...)
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type walker struct {
	ctx  context.Context
	n    *Normalizer
	opts Options
	g    *errgroup.Group
}

func (w *walker) node(node *models.BookmarkNode) []models.ExportNode {
	if !node.IsFolder() {
		return []models.ExportNode{w.bookmark(node)}
	}
	return w.folder(node)
}

func (w *walker) bookmark(node *models.BookmarkNode) *models.ExportBookmark {
	b := &models.ExportBookmark{
		ID:       node.ID,
		ParentID: node.ParentID,
		Title:    node.Title,
		URL:      node.URL,
	}

	if w.opts.IncludeDates {
		b.DateAdded = seconds(node.DateAdded)
		if node.DateLastUsed != 0 {
			b.DateLastUsed = seconds(node.DateLastUsed)
		}
	}

	if w.opts.IncludeIconData {
		// b is only read again after Wait.
		w.g.Go(func() error {
			b.IconData = w.n.icons.Fetch(w.ctx, b.URL, w.n.iconSize)
			return nil
		})
	}
	return b
}

func (w *walker) folder(node *models.BookmarkNode) []models.ExportNode {
	if w.opts.HideParentFolder && !models.IsReservedRoot(node.ID) {
		return w.children(node)
	}

	f := &models.ExportFolder{
		ID:       node.ID,
		Title:    node.Title,
		Children: w.children(node),
	}
	if w.opts.IncludeDates {
		f.DateAdded = seconds(node.DateAdded)
		if node.DateGroupModified != 0 {
			f.DateGroupModified = seconds(node.DateGroupModified)
		}
	}

	if node.ID == models.OtherBookmarksID && w.opts.HideOtherBookmarks {
		return f.Children
	}
	return []models.ExportNode{f}
}

func (w *walker) children(node *models.BookmarkNode) []models.ExportNode {
	out := make([]models.ExportNode, 0, len(node.Children))
	for i := range node.Children {
		out = append(out, w.node(&node.Children[i])...)
	}
	return out
}

// ToSeconds converts epoch milliseconds to whole seconds, rounding down.
func ToSeconds(ms int64) int64 {
	s := ms / 1000
	if ms%1000 < 0 {
		s--
	}
	return s
}

func seconds(ms int64) *int64 {
	s := ToSeconds(ms)
	return &s
}
