package models

// ItemType represents the type of item (bookmark or folder)
type ItemType string

const (
	ItemTypeBookmark ItemType = "bookmark"
	ItemTypeFolder   ItemType = "folder"
)

// Reserved node ids every bookmark store exposes.
const (
	RootID           = "0"
	BookmarksBarID   = "1"
	OtherBookmarksID = "2"
)

// Default titles of the reserved containers.
const (
	BookmarksBarTitle   = "Bookmarks bar"
	OtherBookmarksTitle = "Other bookmarks"
)

// IsReservedRoot reports whether id names the Bookmarks bar or Other bookmarks container.
func IsReservedRoot(id string) bool {
	return id == BookmarksBarID || id == OtherBookmarksID
}

// BookmarkNode is a node of the host bookmark tree. Dates are milliseconds since epoch.
// A node with a URL is a bookmark; a node without one is a folder.
type BookmarkNode struct {
	ID                string         `json:"id"`
	ParentID          string         `json:"parentId,omitempty"`
	Title             string         `json:"title"`
	URL               string         `json:"url,omitempty"`
	DateAdded         int64          `json:"dateAdded,omitempty"`
	DateGroupModified int64          `json:"dateGroupModified,omitempty"`
	DateLastUsed      int64          `json:"dateLastUsed,omitempty"`
	Children          []BookmarkNode `json:"children,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n *BookmarkNode) IsFolder() bool {
	return n.URL == ""
}

// Type returns the item type of the node.
func (n *BookmarkNode) Type() ItemType {
	if n.IsFolder() {
		return ItemTypeFolder
	}
	return ItemTypeBookmark
}

// Find returns the node with the given id inside the forest, or nil.
func Find(forest []BookmarkNode, id string) *BookmarkNode {
	for i := range forest {
		if forest[i].ID == id {
			return &forest[i]
		}
		if found := Find(forest[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

// CreateRequest describes a node to create in the host store.
// An empty URL creates a folder.
type CreateRequest struct {
	ParentID string
	Title    string
	URL      string
	Icon     string // optional favicon data URL
}
