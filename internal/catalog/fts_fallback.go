//go:build !sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"

	"github.com/starford/folio/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the posts table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ *models.Post) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT p.slug, p.title, substr(p.body, 1, 200)
		FROM posts p
		WHERE p.title LIKE ? OR p.body LIKE ?
		   OR EXISTS (SELECT 1 FROM post_tags t WHERE t.slug = p.slug AND t.tag LIKE ?)
		ORDER BY p.position
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
