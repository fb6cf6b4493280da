package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

var fixedNow = time.UnixMilli(1700000000000)

func newTestParser() *Parser {
	return NewParser().WithClock(func() time.Time { return fixedNow })
}

const chromeExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1690000000" LAST_MODIFIED="1690000500" PERSONAL_TOOLBAR_FOLDER="true">Bookmarks bar</H3>
    <DL><p>
        <DT><A HREF="https://example.com/?a=1&amp;b=2" ADD_DATE="1690000001" ICON="data:image/png;base64,AAA=">  Tom &amp; Jerry  </A>
        <DT><H3 ADD_DATE="1690000002">Dev</H3>
        <DL><p>
            <DT><H3 ADD_DATE="1690000003" LAST_MODIFIED="1690000004">Nested</H3>
            <DL><p>
                <DT><A HREF="https://pkg.go.dev">Docs</A>
            </DL><p>
            <DT><A HREF="https://github.com" ADD_DATE="1690000005">GitHub</A>
        </DL><p>
    </DL><p>
    <DT><A HREF="https://example.org" ADD_DATE="1690000006">Loose</A>
    <DT><H3 ADD_DATE="1690000007">Empty</H3>
    <DL><p>
    </DL><p>
</DL><p>
`

func TestParseHTML_ChromeExport(t *testing.T) {
	forest, err := newTestParser().ParseHTML(strings.NewReader(chromeExport))
	require.NoError(t, err)
	require.Len(t, forest, 2)

	bar, ok := forest[0].(*models.ParsedFolder)
	require.True(t, ok)
	assert.True(t, bar.IsBookmarksBar())
	assert.Equal(t, "Bookmarks bar", bar.Title)
	assert.Equal(t, int64(1690000000000), bar.DateAdded)
	assert.Equal(t, int64(1690000500000), bar.DateGroupModified)
	require.Len(t, bar.Children, 2)

	link := bar.Children[0].(*models.ParsedBookmark)
	assert.Equal(t, "Tom & Jerry", link.Title)
	assert.Equal(t, "https://example.com/?a=1&b=2", link.URL)
	assert.Equal(t, int64(1690000001000), link.DateAdded)
	assert.Equal(t, "data:image/png;base64,AAA=", link.Icon)

	dev := bar.Children[1].(*models.ParsedFolder)
	assert.Equal(t, "Dev", dev.Title)
	assert.Equal(t, fixedNow.UnixMilli(), dev.DateGroupModified)
	assert.Equal(t, models.RootNone, dev.Root)
	require.Len(t, dev.Children, 2)

	nested := dev.Children[0].(*models.ParsedFolder)
	assert.Equal(t, "Nested", nested.Title)
	require.Len(t, nested.Children, 1)
	docs := nested.Children[0].(*models.ParsedBookmark)
	assert.Equal(t, "https://pkg.go.dev", docs.URL)
	assert.Equal(t, fixedNow.UnixMilli(), docs.DateAdded)
	assert.Equal(t, "GitHub", dev.Children[1].Name())

	other, ok := forest[1].(*models.ParsedFolder)
	require.True(t, ok)
	assert.True(t, other.IsOtherBookmarks())
	assert.Equal(t, "Other bookmarks", other.Title)
	require.Len(t, other.Children, 2)
	assert.Equal(t, "Loose", other.Children[0].Name())
	empty := other.Children[1].(*models.ParsedFolder)
	assert.Equal(t, "Empty", empty.Title)
	assert.Empty(t, empty.Children)
}

func TestParseHTML_NoOtherEntries(t *testing.T) {
	doc := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 PERSONAL_TOOLBAR_FOLDER="true">Bar</H3>
    <DL><p>
        <DT><A>No href</A>
    </DL><p>
</DL><p>`

	forest, err := newTestParser().ParseHTML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, forest, 1)

	bar := forest[0].(*models.ParsedFolder)
	assert.True(t, bar.IsBookmarksBar())
	require.Len(t, bar.Children, 1)
	assert.Equal(t, "", bar.Children[0].(*models.ParsedBookmark).URL)
}

func TestParseHTML_OnlyFirstToolbarIsTagged(t *testing.T) {
	doc := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 PERSONAL_TOOLBAR_FOLDER="true">First</H3>
    <DL><p></DL><p>
    <DT><H3 PERSONAL_TOOLBAR_FOLDER="true">Second</H3>
    <DL><p></DL><p>
</DL><p>`

	forest, err := newTestParser().ParseHTML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, "First", forest[0].Name())
	other := forest[1].(*models.ParsedFolder)
	assert.True(t, other.IsOtherBookmarks())
	assert.Equal(t, "Second", other.Children[0].Name())
}

func TestParseHTML_InvalidDateFallsBackToNow(t *testing.T) {
	doc := `<DL><DT><A HREF="https://example.com" ADD_DATE="yesterday">x</A></DL>`
	forest, err := newTestParser().ParseHTML(strings.NewReader(doc))
	require.NoError(t, err)
	link := forest[0].(*models.ParsedFolder).Children[0].(*models.ParsedBookmark)
	assert.Equal(t, fixedNow.UnixMilli(), link.DateAdded)
}

func TestParseHTML_NoList(t *testing.T) {
	_, err := newTestParser().ParseHTML(strings.NewReader("<!DOCTYPE NETSCAPE-Bookmark-file-1><H1>Bookmarks</H1>"))
	assert.ErrorIs(t, err, ErrNoBookmarkList)
}

func TestParseJSON_TagsReservedRoots(t *testing.T) {
	data := `[
		{"id":"1","title":"Bookmarks bar","dateAdded":1690000000,"children":[
			{"title":"Example","url":"https://example.com","dateAdded":1690000000},
			{"title":"Folder","children":[{"title":"Inner","url":"https://inner.example"}]}
		]},
		{"id":"2","title":"Other bookmarks","children":[]},
		{"id":"20","title":"Loose","url":"https://loose.example","iconData":"data:x"},
		{"id":"1","title":"Duplicate bar","children":[]}
	]`

	forest, err := newTestParser().ParseJSON([]byte(data))
	require.NoError(t, err)
	require.Len(t, forest, 4)

	bar := forest[0].(*models.ParsedFolder)
	assert.True(t, bar.IsBookmarksBar())
	assert.Equal(t, int64(1690000000000), bar.DateAdded)
	assert.Equal(t, fixedNow.UnixMilli(), bar.DateGroupModified)
	example := bar.Children[0].(*models.ParsedBookmark)
	assert.Equal(t, "https://example.com", example.URL)
	folder := bar.Children[1].(*models.ParsedFolder)
	assert.Equal(t, "Inner", folder.Children[0].Name())

	assert.True(t, forest[1].(*models.ParsedFolder).IsOtherBookmarks())

	loose := forest[2].(*models.ParsedBookmark)
	assert.Equal(t, "data:x", loose.Icon)

	assert.Equal(t, models.RootNone, forest[3].(*models.ParsedFolder).Root)
}

func TestParseJSON_TolerantDates(t *testing.T) {
	data := `[{"id":"1","title":"Bar","dateAdded":"7/24/2023, 10:00:00 AM","dateGroupModified":1.69e9,"children":[]}]`
	forest, err := newTestParser().ParseJSON([]byte(data))
	require.NoError(t, err)
	bar := forest[0].(*models.ParsedFolder)
	assert.Equal(t, fixedNow.UnixMilli(), bar.DateAdded)
	assert.Equal(t, int64(1690000000000), bar.DateGroupModified)
}

func TestParseJSON_Invalid(t *testing.T) {
	for _, data := range []string{"{}", "not json", `[{"id": 1}]`} {
		_, err := newTestParser().ParseJSON([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestPreprocess_IgnoresBookmarks(t *testing.T) {
	nodes := Preprocess([]models.ParsedNode{
		&models.ParsedBookmark{ID: "1", Title: "odd", URL: "https://example.com"},
		&models.ParsedFolder{ID: "2"},
	})
	assert.True(t, nodes[1].(*models.ParsedFolder).IsOtherBookmarks())
}
