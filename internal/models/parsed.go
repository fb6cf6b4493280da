package models

// Root tags a top-level parsed folder with the reserved container it maps to.
type Root int

const (
	RootNone Root = iota
	RootBookmarksBar
	RootOtherBookmarks
)

// ParsedNode is a node of an imported tree. It is either a *ParsedBookmark or a *ParsedFolder.
// Dates are milliseconds since epoch.
type ParsedNode interface {
	Type() ItemType
	Name() string
	parsedNode()
}

// ParsedBookmark is an imported bookmark.
type ParsedBookmark struct {
	ID        string
	Title     string
	URL       string
	DateAdded int64
	Icon      string
}

// ParsedFolder is an imported folder. Root is only set on top-level folders.
type ParsedFolder struct {
	ID                string
	Title             string
	DateAdded         int64
	DateGroupModified int64
	Children          []ParsedNode
	Root              Root
}

func (*ParsedBookmark) Type() ItemType { return ItemTypeBookmark }
func (*ParsedFolder) Type() ItemType   { return ItemTypeFolder }

func (b *ParsedBookmark) Name() string { return b.Title }
func (f *ParsedFolder) Name() string   { return f.Title }

func (*ParsedBookmark) parsedNode() {}
func (*ParsedFolder) parsedNode()   {}

// IsBookmarksBar reports whether the folder maps to the Bookmarks bar.
func (f *ParsedFolder) IsBookmarksBar() bool { return f.Root == RootBookmarksBar }

// IsOtherBookmarks reports whether the folder maps to Other bookmarks.
func (f *ParsedFolder) IsOtherBookmarks() bool { return f.Root == RootOtherBookmarks }
