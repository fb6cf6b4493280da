package normalize

import (
	"strings"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

// Select prunes the reserved roots of tree to the checked ids. A checked folder keeps its
// whole subtree; an unchecked folder is kept only for its checked descendants.
func Select(tree []models.BookmarkNode, checked map[string]bool) []models.BookmarkNode {
	if len(tree) == 0 {
		return nil
	}

	var roots []models.BookmarkNode
	for _, child := range tree[0].Children {
		if models.IsReservedRoot(child.ID) {
			roots = append(roots, child)
		}
	}
	return prune(roots, checked)
}

func prune(nodes []models.BookmarkNode, checked map[string]bool) []models.BookmarkNode {
	out := []models.BookmarkNode{}
	for _, node := range nodes {
		if checked[node.ID] {
			out = append(out, node)
			continue
		}
		if !node.IsFolder() {
			continue
		}
		if children := prune(node.Children, checked); len(children) > 0 {
			node.Children = children
			out = append(out, node)
		}
	}
	return out
}

// Matches reports whether the title or URL of node contains term, ignoring case.
// An empty term matches everything.
func Matches(node *models.BookmarkNode, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(node.Title), term) ||
		strings.Contains(strings.ToLower(node.URL), term)
}

// Filter keeps the nodes matching term together with the folders leading to them.
func Filter(nodes []models.BookmarkNode, term string) []models.BookmarkNode {
	if term == "" {
		return nodes
	}

	var out []models.BookmarkNode
	for _, node := range nodes {
		children := Filter(node.Children, term)
		if Matches(&node, term) || len(children) > 0 {
			node.Children = children
			out = append(out, node)
		}
	}
	return out
}

// CountBookmarks counts the bookmarks (not folders) in the forest.
func CountBookmarks(nodes []models.BookmarkNode) int {
	count := 0
	for i := range nodes {
		if nodes[i].IsFolder() {
			count += CountBookmarks(nodes[i].Children)
		} else {
			count++
		}
	}
	return count
}
