package models

import "encoding/json"

// ExportNode is a node of a normalized tree, ready to be serialized.
// It is either an *ExportBookmark or an *ExportFolder.
type ExportNode interface {
	Type() ItemType
	exportNode()
}

// ExportBookmark is a normalized bookmark. Dates are whole seconds; nil when dates are excluded.
type ExportBookmark struct {
	ID           string `json:"id,omitempty"`
	ParentID     string `json:"parentId,omitempty"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	DateAdded    *int64 `json:"dateAdded,omitempty"`
	DateLastUsed *int64 `json:"dateLastUsed,omitempty"`
	IconData     string `json:"iconData,omitempty"`
}

// ExportFolder is a normalized folder. Dates are whole seconds; nil when dates are excluded.
type ExportFolder struct {
	ID                string       `json:"id,omitempty"`
	Title             string       `json:"title"`
	DateAdded         *int64       `json:"dateAdded,omitempty"`
	DateGroupModified *int64       `json:"dateGroupModified,omitempty"`
	Children          []ExportNode `json:"children"`
}

func (*ExportBookmark) Type() ItemType { return ItemTypeBookmark }
func (*ExportFolder) Type() ItemType   { return ItemTypeFolder }

func (*ExportBookmark) exportNode() {}
func (*ExportFolder) exportNode()   {}

// MarshalJSON always emits a children array, empty for an empty folder.
func (f *ExportFolder) MarshalJSON() ([]byte, error) {
	type folder ExportFolder
	out := folder(*f)
	if out.Children == nil {
		out.Children = []ExportNode{}
	}
	return json.Marshal(out)
}
