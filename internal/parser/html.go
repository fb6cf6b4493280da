package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

// ParseHTML parses a Netscape Bookmark File. The top-level heading marked
// PERSONAL_TOOLBAR_FOLDER becomes the Bookmarks bar; every other top-level entry is
// gathered into a synthesized Other bookmarks folder.
func (p *Parser) ParseHTML(r io.Reader) ([]models.ParsedNode, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}

	list := rootList(doc)
	if list == nil {
		return nil, fmt.Errorf("html: %w", ErrNoBookmarkList)
	}

	var forest []models.ParsedNode
	var others []models.ParsedNode
	haveBar := false

	for _, dt := range childElements(list, "dt") {
		entry := firstElementChild(dt)
		node := p.parseEntry(entry)
		if node == nil {
			continue
		}

		if folder, ok := node.(*models.ParsedFolder); ok && !haveBar && isToolbarFolder(entry) {
			folder.Root = models.RootBookmarksBar
			forest = append(forest, folder)
			haveBar = true
			continue
		}
		others = append(others, node)
	}

	if len(others) > 0 {
		forest = append(forest, &models.ParsedFolder{
			Title:     models.OtherBookmarksTitle,
			DateAdded: p.nowMillis(),
			Children:  others,
			Root:      models.RootOtherBookmarks,
		})
	}

	return forest, nil
}

func (p *Parser) parseEntry(n *html.Node) models.ParsedNode {
	if n == nil {
		return nil
	}

	switch n.Data {
	case "a":
		href, _ := attr(n, "href")
		icon, _ := attr(n, "icon")
		return &models.ParsedBookmark{
			Title:     strings.TrimSpace(textContent(n)),
			URL:       href,
			DateAdded: p.date(n, "add_date"),
			Icon:      icon,
		}

	case "h3":
		folder := &models.ParsedFolder{
			Title:             strings.TrimSpace(textContent(n)),
			DateAdded:         p.date(n, "add_date"),
			DateGroupModified: p.date(n, "last_modified"),
			Children:          []models.ParsedNode{},
		}
		if list := nextElementSibling(n); list != nil && list.Data == "dl" {
			for _, dt := range childElements(list, "dt") {
				if child := p.parseEntry(firstElementChild(dt)); child != nil {
					folder.Children = append(folder.Children, child)
				}
			}
		}
		return folder
	}

	return nil
}

// date reads a seconds attribute as milliseconds, falling back to now.
func (p *Parser) date(n *html.Node, key string) int64 {
	val, ok := attr(n, key)
	if !ok {
		return p.nowMillis()
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return p.nowMillis()
	}
	return secs * 1000
}

func isToolbarFolder(n *html.Node) bool {
	val, ok := attr(n, "personal_toolbar_folder")
	return ok && strings.EqualFold(val, "true")
}

// rootList finds the <DL> directly under <body>.
func rootList(doc *html.Node) *html.Node {
	body := findElement(doc, "body")
	if body == nil {
		return nil
	}
	lists := childElements(body, "dl")
	if len(lists) == 0 {
		return nil
	}
	return lists[0]
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func childElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
