// Package parser reads exported bookmark files back into parsed trees ready to be materialized.
package parser

import (
	"errors"
	"time"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

// ErrNoBookmarkList is returned for HTML documents without a top-level <DL> list.
var ErrNoBookmarkList = errors.New("no bookmark list found")

// Parser parses HTML and JSON bookmark files
type Parser struct {
	now func() time.Time
}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// WithClock sets the clock used for entries that carry no dates.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

func (p *Parser) nowMillis() int64 {
	return p.now().UnixMilli()
}

// Preprocess tags the top-level folders with id "1" and "2" as the Bookmarks bar and
// Other bookmarks. Other top-level entries are left untagged.
func Preprocess(nodes []models.ParsedNode) []models.ParsedNode {
	var haveBar, haveOther bool
	for _, node := range nodes {
		folder, ok := node.(*models.ParsedFolder)
		if !ok {
			continue
		}
		switch {
		case folder.ID == models.BookmarksBarID && !haveBar:
			folder.Root = models.RootBookmarksBar
			haveBar = true
		case folder.ID == models.OtherBookmarksID && !haveOther:
			folder.Root = models.RootOtherBookmarks
			haveOther = true
		}
	}
	return nodes
}
