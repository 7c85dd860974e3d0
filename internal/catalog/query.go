package catalog

import "fmt"

// PostRow is a post as stored in the catalog.
type PostRow struct {
	Slug     string
	Title    string
	Date     string
	Category string
	Pinned   bool
	Position int
}

// HeadingRow is a heading as stored in the catalog.
type HeadingRow struct {
	Position int
	Level    int
	Anchor   string
	Text     string
	Parent   *int
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string
	Title   string
	Snippet string
}

// Index returns posts in index order.
func (db *DB) Index() ([]PostRow, error) {
	return db.posts(`SELECT slug, title, date, category, pinned, position FROM posts ORDER BY position`)
}

// ByTag returns the posts carrying tag, in index order.
func (db *DB) ByTag(tag string) ([]PostRow, error) {
	return db.posts(`
		SELECT p.slug, p.title, p.date, p.category, p.pinned, p.position
		FROM posts p JOIN post_tags t ON t.slug = p.slug
		WHERE t.tag = ?
		ORDER BY p.position`, tag)
}

// ByCategory returns the posts in category, in index order.
func (db *DB) ByCategory(category string) ([]PostRow, error) {
	return db.posts(`SELECT slug, title, date, category, pinned, position FROM posts WHERE category = ? ORDER BY position`, category)
}

func (db *DB) posts(query string, args ...any) ([]PostRow, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		var r PostRow
		if err := rows.Scan(&r.Slug, &r.Title, &r.Date, &r.Category, &r.Pinned, &r.Position); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Headings returns a post's headings in document order.
func (db *DB) Headings(slug string) ([]HeadingRow, error) {
	rows, err := db.conn.Query(`SELECT position, level, anchor, text, parent FROM headings WHERE slug = ? ORDER BY position`, slug)
	if err != nil {
		return nil, fmt.Errorf("catalog: headings: %w", err)
	}
	defer rows.Close()

	var out []HeadingRow
	for rows.Next() {
		var r HeadingRow
		if err := rows.Scan(&r.Position, &r.Level, &r.Anchor, &r.Text, &r.Parent); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Fingerprint returns the fingerprint of the build that wrote the catalog.
func (db *DB) Fingerprint() (string, error) {
	var fp string
	if err := db.conn.QueryRow(`SELECT fingerprint FROM build`).Scan(&fp); err != nil {
		return "", fmt.Errorf("catalog: fingerprint: %w", err)
	}
	return fp, nil
}
