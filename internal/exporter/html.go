// Package exporter renders normalized bookmark trees as Netscape HTML or JSON documents.
package exporter

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

const htmlHeader = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`

const indentUnit = "    "

// WriteHTML writes forest as a Netscape Bookmark File.
func WriteHTML(w io.Writer, forest []models.ExportNode) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(htmlHeader)
	for _, node := range forest {
		writeHTMLNode(bw, node, 1)
	}
	bw.WriteString("</DL><p>\n")
	return bw.Flush()
}

// HTML returns forest as a Netscape Bookmark File.
func HTML(forest []models.ExportNode) string {
	var b strings.Builder
	_ = WriteHTML(&b, forest)
	return b.String()
}

func writeHTMLNode(w *bufio.Writer, node models.ExportNode, level int) {
	indent := strings.Repeat(indentUnit, level)

	switch n := node.(type) {
	case *models.ExportBookmark:
		var attrs strings.Builder
		if n.DateAdded != nil {
			fmt.Fprintf(&attrs, ` ADD_DATE="%d"`, *n.DateAdded)
		}
		if n.DateLastUsed != nil {
			fmt.Fprintf(&attrs, ` LAST_USED="%d"`, *n.DateLastUsed)
		}
		if n.IconData != "" {
			fmt.Fprintf(&attrs, ` ICON="%s"`, html.EscapeString(n.IconData))
		}
		fmt.Fprintf(w, "%s<DT><A HREF=\"%s\"%s>%s</A>\n",
			indent, html.EscapeString(n.URL), attrs.String(), html.EscapeString(n.Title))

	case *models.ExportFolder:
		var attrs strings.Builder
		if n.DateAdded != nil {
			modified := n.DateAdded
			if n.DateGroupModified != nil {
				modified = n.DateGroupModified
			}
			fmt.Fprintf(&attrs, ` ADD_DATE="%d" LAST_MODIFIED="%d"`, *n.DateAdded, *modified)
		}
		if n.ID == models.BookmarksBarID {
			attrs.WriteString(` PERSONAL_TOOLBAR_FOLDER="true"`)
		}
		fmt.Fprintf(w, "%s<DT><H3%s>%s</H3>\n", indent, attrs.String(), html.EscapeString(n.Title))
		fmt.Fprintf(w, "%s<DL><p>\n", indent)
		for _, child := range n.Children {
			writeHTMLNode(w, child, level+1)
		}
		fmt.Fprintf(w, "%s</DL><p>\n", indent)
	}
}
