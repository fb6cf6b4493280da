package normalize

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dastanaron/bookmark-transfer/internal/favicon"
	"github.com/dastanaron/bookmark-transfer/internal/models"
)

func sampleTree() []models.BookmarkNode {
	return []models.BookmarkNode{{
		ID: models.RootID,
		Children: []models.BookmarkNode{
			{
				ID: "1", ParentID: "0", Title: "Bookmarks bar",
				DateAdded: 1690000000123, DateGroupModified: 1690000500999,
				Children: []models.BookmarkNode{
					{ID: "10", ParentID: "1", Title: "Go", URL: "https://go.dev", DateAdded: 1690000001500, DateLastUsed: 1690000100999},
					{
						ID: "11", ParentID: "1", Title: "Dev", DateAdded: 1690000002000,
						Children: []models.BookmarkNode{
							{ID: "12", ParentID: "11", Title: "GitHub", URL: "https://github.com", DateAdded: 1690000003000},
							{
								ID: "13", ParentID: "11", Title: "Deep", DateAdded: 1690000004000,
								Children: []models.BookmarkNode{
									{ID: "14", ParentID: "13", Title: "Docs", URL: "https://pkg.go.dev", DateAdded: 1690000005000},
								},
							},
						},
					},
				},
			},
			{
				ID: "2", ParentID: "0", Title: "Other bookmarks", DateAdded: 1690000000000,
				Children: []models.BookmarkNode{
					{ID: "20", ParentID: "2", Title: "Example", URL: "https://example.com", DateAdded: 1690000006000},
					{ID: "21", ParentID: "2", Title: "Empty", DateAdded: 1690000007000},
				},
			},
			{
				ID: "3", ParentID: "0", Title: "Mobile bookmarks",
				Children: []models.BookmarkNode{
					{ID: "30", ParentID: "3", Title: "Phone", URL: "https://m.example.com"},
				},
			},
		},
	}}
}

// outline renders an export forest as nested titles, folders suffixed with "/".
func outline(nodes []models.ExportNode) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case *models.ExportBookmark:
			out = append(out, v.Title)
		case *models.ExportFolder:
			out = append(out, map[string][]any{v.Title + "/": outline(v.Children)})
		}
	}
	return out
}

func run(t *testing.T, n *Normalizer, selection []models.BookmarkNode, opts Options) []models.ExportNode {
	t.Helper()
	out, err := n.Normalize(context.Background(), sampleTree(), selection, opts)
	require.NoError(t, err)
	return out
}

func TestNormalize_Structure(t *testing.T) {
	bar := func(children ...any) map[string][]any { return map[string][]any{"Bookmarks bar/": children} }
	other := func(children ...any) map[string][]any { return map[string][]any{"Other bookmarks/": children} }
	dev := map[string][]any{"Dev/": {"GitHub", map[string][]any{"Deep/": {"Docs"}}}}
	empty := map[string][]any{"Empty/": {}}

	tests := []struct {
		name string
		opts Options
		want []any
	}{
		{
			name: "defaults hide other bookmarks",
			opts: DefaultOptions(),
			want: []any{bar("Go", dev), "Example", empty},
		},
		{
			name: "other bookmarks shown",
			opts: Options{IncludeDates: true},
			want: []any{bar("Go", dev), other("Example", empty)},
		},
		{
			name: "parent folders hidden",
			opts: Options{HideOtherBookmarks: true, HideParentFolder: true},
			want: []any{bar("Go", "GitHub", "Docs"), "Example"},
		},
		{
			name: "parent folders hidden, other shown",
			opts: Options{HideParentFolder: true},
			want: []any{bar("Go", "GitHub", "Docs"), other("Example")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, NewNormalizer(nil, 0, 0), nil, tt.opts)
			assert.Equal(t, tt.want, outline(out))
		})
	}
}

func TestNormalize_Dates(t *testing.T) {
	out := run(t, NewNormalizer(nil, 0, 0), nil, Options{IncludeDates: true})

	bar := out[0].(*models.ExportFolder)
	require.NotNil(t, bar.DateAdded)
	assert.Equal(t, int64(1690000000), *bar.DateAdded)
	assert.Equal(t, int64(1690000500), *bar.DateGroupModified)

	goLink := bar.Children[0].(*models.ExportBookmark)
	assert.Equal(t, int64(1690000001), *goLink.DateAdded)
	assert.Equal(t, int64(1690000100), *goLink.DateLastUsed)

	dev := bar.Children[1].(*models.ExportFolder)
	assert.Nil(t, dev.DateGroupModified)
	github := dev.Children[0].(*models.ExportBookmark)
	assert.Nil(t, github.DateLastUsed)

	out = run(t, NewNormalizer(nil, 0, 0), nil, Options{})
	bar = out[0].(*models.ExportFolder)
	assert.Nil(t, bar.DateAdded)
	assert.Nil(t, bar.DateGroupModified)
	goLink = bar.Children[0].(*models.ExportBookmark)
	assert.Nil(t, goLink.DateAdded)
	assert.Nil(t, goLink.DateLastUsed)

	data, err := json.Marshal(goLink)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"10","parentId":"1","title":"Go","url":"https://go.dev"}`, string(data))
}

func TestNormalize_IconData(t *testing.T) {
	var calls atomic.Int32
	icons := favicon.FetcherFunc(func(_ context.Context, pageURL string, size int) string {
		calls.Add(1)
		assert.Equal(t, 32, size)
		if pageURL == "https://github.com" {
			return ""
		}
		return "data:image/png;base64," + pageURL
	})

	out := run(t, NewNormalizer(icons, 32, 2), nil, Options{IncludeIconData: true, HideParentFolder: true})

	bar := out[0].(*models.ExportFolder)
	assert.Equal(t, "data:image/png;base64,https://go.dev", bar.Children[0].(*models.ExportBookmark).IconData)
	assert.Equal(t, "", bar.Children[1].(*models.ExportBookmark).IconData)
	assert.Equal(t, "data:image/png;base64,https://pkg.go.dev", bar.Children[2].(*models.ExportBookmark).IconData)
	assert.Equal(t, int32(4), calls.Load())

	calls.Store(0)
	run(t, NewNormalizer(icons, 32, 2), nil, Options{})
	assert.Equal(t, int32(0), calls.Load())
}

func TestNormalize_DoesNotMutateHostTree(t *testing.T) {
	tree := sampleTree()
	_, err := NewNormalizer(nil, 0, 0).Normalize(context.Background(), tree, nil, Options{
		IncludeDates: true, HideOtherBookmarks: true, HideParentFolder: true,
	})
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), tree)
}

func TestNormalize_EmptyTree(t *testing.T) {
	out, err := NewNormalizer(nil, 0, 0).Normalize(context.Background(), nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewNormalizer(nil, 0, 0).Normalize(ctx, sampleTree(), nil, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize_Selection(t *testing.T) {
	selection := Select(sampleTree(), map[string]bool{"12": true, "20": true})

	out := run(t, NewNormalizer(nil, 0, 0), selection, DefaultOptions())
	assert.Equal(t, []any{
		map[string][]any{"Bookmarks bar/": {map[string][]any{"Dev/": {"GitHub"}}}},
		"Example",
	}, outline(out))

	out = run(t, NewNormalizer(nil, 0, 0), []models.BookmarkNode{}, DefaultOptions())
	assert.Empty(t, out)
}

func TestToSeconds(t *testing.T) {
	assert.Equal(t, int64(1690000000), ToSeconds(1690000000999))
	assert.Equal(t, int64(0), ToSeconds(999))
	assert.Equal(t, int64(-1), ToSeconds(-1))
}
