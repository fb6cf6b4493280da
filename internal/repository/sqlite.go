package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dastanaron/bookmark-transfer/internal/apperr"
	"github.com/dastanaron/bookmark-transfer/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (and if needed creates) the bookmark database at dbPath
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db, now: time.Now}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	createTables := `
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parent_id INTEGER,
		position INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		url TEXT,
		icon TEXT,
		date_added INTEGER NOT NULL DEFAULT 0,
		date_group_modified INTEGER,
		date_last_used INTEGER,
		FOREIGN KEY(parent_id) REFERENCES nodes(id)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
	CREATE INDEX IF NOT EXISTS idx_nodes_url ON nodes(url);
	`
	if _, err := r.db.Exec(createTables); err != nil {
		return err
	}

	// Reserved containers keep their ids for the lifetime of the database.
	now := r.now().UnixMilli()
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO nodes(id, parent_id, position, title, date_added, date_group_modified) VALUES
			(0, NULL, 0, '', ?, ?),
			(1, 0, 0, ?, ?, ?),
			(2, 0, 1, ?, ?, ?)
	`, now, now,
		models.BookmarksBarTitle, now, now,
		models.OtherBookmarksTitle, now, now,
	)
	return err
}

type nodeRow struct {
	id                int64
	parentID          sql.NullInt64
	title             string
	url               sql.NullString
	dateAdded         int64
	dateGroupModified sql.NullInt64
	dateLastUsed      sql.NullInt64
}

// Tree returns the whole bookmark tree
func (r *SQLiteRepository) Tree(ctx context.Context) ([]models.BookmarkNode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, title, url, date_added, date_group_modified, date_last_used
		FROM nodes
		ORDER BY parent_id, position, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roots []nodeRow
	byParent := make(map[int64][]nodeRow)
	for rows.Next() {
		var n nodeRow
		if err := rows.Scan(&n.id, &n.parentID, &n.title, &n.url, &n.dateAdded, &n.dateGroupModified, &n.dateLastUsed); err != nil {
			return nil, err
		}
		if n.parentID.Valid {
			byParent[n.parentID.Int64] = append(byParent[n.parentID.Int64], n)
		} else {
			roots = append(roots, n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	forest := make([]models.BookmarkNode, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, buildNode(root, byParent))
	}
	return forest, nil
}

func buildNode(row nodeRow, byParent map[int64][]nodeRow) models.BookmarkNode {
	node := models.BookmarkNode{
		ID:                strconv.FormatInt(row.id, 10),
		Title:             row.title,
		URL:               row.url.String,
		DateAdded:         row.dateAdded,
		DateGroupModified: row.dateGroupModified.Int64,
		DateLastUsed:      row.dateLastUsed.Int64,
	}
	if row.parentID.Valid {
		node.ParentID = strconv.FormatInt(row.parentID.Int64, 10)
	}
	if node.IsFolder() {
		node.Children = make([]models.BookmarkNode, 0, len(byParent[row.id]))
		for _, child := range byParent[row.id] {
			node.Children = append(node.Children, buildNode(child, byParent))
		}
	}
	return node
}

// Create appends a bookmark or folder to its parent
func (r *SQLiteRepository) Create(ctx context.Context, req models.CreateRequest) (string, error) {
	parentID, err := strconv.ParseInt(req.ParentID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parent %q: %w", req.ParentID, apperr.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var parentURL sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT url FROM nodes WHERE id = ?`, parentID).Scan(&parentURL)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("parent %q: %w", req.ParentID, apperr.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if parentURL.String != "" {
		return "", fmt.Errorf("parent %q: %w", req.ParentID, ErrParentNotFolder)
	}

	var position int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM nodes WHERE parent_id = ?`, parentID,
	).Scan(&position)
	if err != nil {
		return "", err
	}

	now := r.now().UnixMilli()
	var url, icon, groupModified any
	if req.URL != "" {
		url = req.URL
		if req.Icon != "" {
			icon = req.Icon
		}
	} else {
		groupModified = now
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO nodes(parent_id, position, title, url, icon, date_added, date_group_modified) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		parentID, position, req.Title, url, icon, now, groupModified,
	)
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE nodes SET date_group_modified = ? WHERE id = ?`, now, parentID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// StoredIcon returns the icon saved with any bookmark of pageURL, or "".
// Its signature matches favicon.FetcherFunc.
func (r *SQLiteRepository) StoredIcon(ctx context.Context, pageURL string, _ int) string {
	var icon string
	err := r.db.QueryRowContext(ctx,
		`SELECT icon FROM nodes WHERE url = ? AND icon IS NOT NULL AND icon <> '' LIMIT 1`, pageURL,
	).Scan(&icon)
	if err != nil {
		return ""
	}
	return icon
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
