package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dastanaron/bookmark-transfer/internal/apperr"
	"github.com/dastanaron/bookmark-transfer/internal/models"
	"github.com/dastanaron/bookmark-transfer/internal/parser"
	"github.com/dastanaron/bookmark-transfer/internal/repository"
)

func TestMaterialize_SingleBookmark(t *testing.T) {
	forest, err := parser.NewParser().ParseJSON([]byte(
		`[{"id":"1","title":"Bookmarks bar","children":[{"title":"Example","url":"https://example.com","dateAdded":1690000000}]}]`,
	))
	require.NoError(t, err)

	repo := repository.NewMemoryRepository()
	stats, err := NewMaterializer(repo, nil).Materialize(context.Background(), forest)
	require.NoError(t, err)

	assert.Equal(t, Stats{Bookmarks: 1}, stats)
	assert.Equal(t, []models.CreateRequest{
		{ParentID: "1", Title: "Example", URL: "https://example.com"},
	}, repo.Calls())
}

func TestMaterialize_SkipsBookmarkWithoutURL(t *testing.T) {
	doc := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 PERSONAL_TOOLBAR_FOLDER="true">Bookmarks bar</H3>
    <DL><p>
        <DT><A ADD_DATE="1">NoHref</A>
        <DT><A HREF="https://kept.example">Kept</A>
    </DL><p>
</DL><p>`
	forest, err := parser.NewParser().ParseHTML(strings.NewReader(doc))
	require.NoError(t, err)

	repo := repository.NewMemoryRepository()
	stats, err := NewMaterializer(repo, nil).Materialize(context.Background(), forest)
	require.NoError(t, err)

	assert.Equal(t, Stats{Bookmarks: 1}, stats)
	assert.Equal(t, []models.CreateRequest{
		{ParentID: "1", Title: "Kept", URL: "https://kept.example"},
	}, repo.Calls())

	tree, err := repo.Tree(context.Background())
	require.NoError(t, err)
	bar := models.Find(tree, models.BookmarksBarID)
	require.Len(t, bar.Children, 1)
	assert.Equal(t, "https://kept.example", bar.Children[0].URL)
}

func TestMaterialize_ParentBeforeChildren(t *testing.T) {
	forest := []models.ParsedNode{
		&models.ParsedFolder{ID: "1", Root: models.RootBookmarksBar, Children: []models.ParsedNode{
			&models.ParsedFolder{Title: "Dev", Children: []models.ParsedNode{
				&models.ParsedFolder{Title: "Go", Children: []models.ParsedNode{
					&models.ParsedBookmark{Title: "go.dev", URL: "https://go.dev", Icon: "data:image/png;base64,AA=="},
				}},
				&models.ParsedBookmark{Title: "GitHub", URL: "https://github.com"},
			}},
			&models.ParsedFolder{Title: "Empty"},
		}},
		&models.ParsedFolder{ID: "2", Root: models.RootOtherBookmarks, Children: []models.ParsedNode{
			&models.ParsedBookmark{Title: "News", URL: "https://news.example"},
		}},
		&models.ParsedFolder{ID: "3", Title: "Mobile", Children: []models.ParsedNode{
			&models.ParsedBookmark{Title: "ignored", URL: "https://ignored.example"},
		}},
	}

	repo := repository.NewMemoryRepository()
	stats, err := NewMaterializer(repo, nil).Materialize(context.Background(), forest)
	require.NoError(t, err)
	assert.Equal(t, Stats{Bookmarks: 3, Folders: 3}, stats)

	// ids are handed out sequentially starting after the reserved ones
	assert.Equal(t, []models.CreateRequest{
		{ParentID: "1", Title: "Dev"},
		{ParentID: "3", Title: "Go"},
		{ParentID: "4", Title: "go.dev", URL: "https://go.dev", Icon: "data:image/png;base64,AA=="},
		{ParentID: "3", Title: "GitHub", URL: "https://github.com"},
		{ParentID: "1", Title: "Empty"},
		{ParentID: "2", Title: "News", URL: "https://news.example"},
	}, repo.Calls())

	tree, err := repo.Tree(context.Background())
	require.NoError(t, err)
	empty := models.Find(tree, "7")
	require.NotNil(t, empty)
	assert.Equal(t, "Empty", empty.Title)
	assert.Empty(t, empty.Children)
}

func TestMaterialize_MissingContainers(t *testing.T) {
	repo := repository.NewMemoryRepositoryFromTree([]models.BookmarkNode{{
		ID:       models.RootID,
		Children: []models.BookmarkNode{{ID: models.BookmarksBarID, Title: "Bookmarks bar"}},
	}})
	forest := []models.ParsedNode{
		&models.ParsedFolder{ID: "1", Root: models.RootBookmarksBar, Children: []models.ParsedNode{
			&models.ParsedBookmark{Title: "a", URL: "https://a"},
		}},
	}

	_, err := NewMaterializer(repo, nil).Materialize(context.Background(), forest)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStructure)
	assert.Empty(t, repo.Calls())
}

func TestMaterialize_HostTreeError(t *testing.T) {
	boom := errors.New("storage fault")
	repo := repository.NewMemoryRepository().FailTree(boom)

	_, err := NewMaterializer(repo, nil).Materialize(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrHost)
	assert.ErrorIs(t, err, boom)
}

func TestMaterialize_StopsAtFailedNode(t *testing.T) {
	boom := errors.New("quota exceeded")
	repo := repository.NewMemoryRepository().FailCreate(func(req models.CreateRequest) error {
		if req.Title == "Broken" {
			return boom
		}
		return nil
	})
	forest := []models.ParsedNode{
		&models.ParsedFolder{ID: "1", Root: models.RootBookmarksBar, Children: []models.ParsedNode{
			&models.ParsedBookmark{Title: "First", URL: "https://first"},
			&models.ParsedFolder{Title: "Broken", Children: []models.ParsedNode{
				&models.ParsedBookmark{Title: "Child", URL: "https://child"},
			}},
			&models.ParsedBookmark{Title: "Last", URL: "https://last"},
		}},
	}

	stats, err := NewMaterializer(repo, nil).Materialize(context.Background(), forest)
	require.Error(t, err)
	assert.Equal(t, Stats{Bookmarks: 1}, stats)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.OpImport, appErr.Op)
	assert.Equal(t, "Broken", appErr.Node)
	assert.Equal(t, models.ItemTypeFolder, appErr.NodeType)
	assert.ErrorIs(t, err, apperr.ErrCreate)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, `import failed: node creation: folder "Broken": quota exceeded`, err.Error())

	// the first bookmark stays in place
	tree, err := repo.Tree(context.Background())
	require.NoError(t, err)
	bar := models.Find(tree, models.BookmarksBarID)
	require.Len(t, bar.Children, 1)
	assert.Equal(t, "First", bar.Children[0].Title)
}
