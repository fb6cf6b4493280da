package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dastanaron/bookmark-transfer/internal/apperr"
	"github.com/dastanaron/bookmark-transfer/internal/models"
)

type memNode struct {
	node     models.BookmarkNode // Children unused
	children []string
	icon     string
}

// MemoryRepository is an in-memory Repository. It records every Create call in order.
type MemoryRepository struct {
	mu       sync.Mutex
	nodes    map[string]*memNode
	roots    []string
	nextID   int64
	now      func() time.Time
	calls    []models.CreateRequest
	failOn   func(models.CreateRequest) error
	treeFail error
}

// NewMemoryRepository returns a store holding only the root and the two reserved containers.
func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryFromTree([]models.BookmarkNode{{
		ID: models.RootID,
		Children: []models.BookmarkNode{
			{ID: models.BookmarksBarID, ParentID: models.RootID, Title: models.BookmarksBarTitle},
			{ID: models.OtherBookmarksID, ParentID: models.RootID, Title: models.OtherBookmarksTitle},
		},
	}})
}

// NewMemoryRepositoryFromTree returns a store holding a copy of forest.
func NewMemoryRepositoryFromTree(forest []models.BookmarkNode) *MemoryRepository {
	r := &MemoryRepository{
		nodes:  make(map[string]*memNode),
		nextID: 1,
		now:    time.Now,
	}
	for _, root := range forest {
		r.roots = append(r.roots, r.load(root, ""))
	}
	return r
}

func (r *MemoryRepository) load(node models.BookmarkNode, parentID string) string {
	n := &memNode{node: node}
	n.node.Children = nil
	if parentID != "" {
		n.node.ParentID = parentID
	}
	r.nodes[node.ID] = n
	if id, err := strconv.ParseInt(node.ID, 10, 64); err == nil && id >= r.nextID {
		r.nextID = id + 1
	}
	for _, child := range node.Children {
		n.children = append(n.children, r.load(child, node.ID))
	}
	return node.ID
}

// WithClock sets the clock used for dates of created nodes.
func (r *MemoryRepository) WithClock(now func() time.Time) *MemoryRepository {
	r.now = now
	return r
}

// FailCreate makes Create return the error fn reports for a request, when non-nil.
func (r *MemoryRepository) FailCreate(fn func(models.CreateRequest) error) *MemoryRepository {
	r.failOn = fn
	return r
}

// FailTree makes Tree return err.
func (r *MemoryRepository) FailTree(err error) *MemoryRepository {
	r.treeFail = err
	return r
}

// Calls returns the Create requests received so far, in order.
func (r *MemoryRepository) Calls() []models.CreateRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.CreateRequest(nil), r.calls...)
}

func (r *MemoryRepository) Tree(ctx context.Context) ([]models.BookmarkNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.treeFail != nil {
		return nil, r.treeFail
	}

	forest := make([]models.BookmarkNode, 0, len(r.roots))
	for _, id := range r.roots {
		forest = append(forest, r.build(id))
	}
	return forest, nil
}

func (r *MemoryRepository) build(id string) models.BookmarkNode {
	n := r.nodes[id]
	node := n.node
	if node.IsFolder() {
		node.Children = make([]models.BookmarkNode, 0, len(n.children))
		for _, child := range n.children {
			node.Children = append(node.Children, r.build(child))
		}
	}
	return node
}

func (r *MemoryRepository) Create(ctx context.Context, req models.CreateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, req)
	if r.failOn != nil {
		if err := r.failOn(req); err != nil {
			return "", err
		}
	}

	parent, ok := r.nodes[req.ParentID]
	if !ok {
		return "", fmt.Errorf("parent %q: %w", req.ParentID, apperr.ErrNotFound)
	}
	if !parent.node.IsFolder() {
		return "", fmt.Errorf("parent %q: %w", req.ParentID, ErrParentNotFolder)
	}

	now := r.now().UnixMilli()
	id := strconv.FormatInt(r.nextID, 10)
	r.nextID++

	node := models.BookmarkNode{
		ID:        id,
		ParentID:  req.ParentID,
		Title:     req.Title,
		URL:       req.URL,
		DateAdded: now,
	}
	if node.IsFolder() {
		node.DateGroupModified = now
	}
	r.nodes[id] = &memNode{node: node}
	if !node.IsFolder() {
		r.nodes[id].icon = req.Icon
	}
	parent.children = append(parent.children, id)
	parent.node.DateGroupModified = now

	return id, nil
}

// StoredIcon returns the icon created with any bookmark of pageURL, or "".
func (r *MemoryRepository) StoredIcon(_ context.Context, pageURL string, _ int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.nodes {
		if n.node.URL == pageURL && n.icon != "" {
			return n.icon
		}
	}
	return ""
}

func (r *MemoryRepository) Close() error {
	return nil
}
