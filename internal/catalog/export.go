package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/pipeline"
)

// Export writes s into a fresh catalog at dsn, replacing any existing file.
func Export(dsn string, s *pipeline.Site) error {
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return fmt.Errorf("catalog: mkdir: %w", err)
	}
	db, err := create(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for pos, p := range s.Aggregation.Index {
		if err := insertPost(tx, pos, p); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO build (fingerprint, posts, skipped) VALUES (?, ?, ?)`,
		s.Fingerprint, len(s.Posts), len(s.Skipped)); err != nil {
		return fmt.Errorf("catalog: insert build: %w", err)
	}
	return tx.Commit()
}

func insertPost(tx *sql.Tx, pos int, p *models.Post) error {
	_, err := tx.Exec(`
		INSERT INTO posts (slug, path, title, date, category, pinned, position, author, description, checksum, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Slug, p.Path, p.Title, p.DateString(), p.Category, p.Pinned, pos, p.Author, p.Description, p.Checksum, p.RawBody)
	if err != nil {
		return fmt.Errorf("catalog: insert post %s: %w", p.Slug, err)
	}

	if err := ftsInsert(tx, p); err != nil {
		return err
	}

	for i, tag := range p.Tags {
		if _, err := tx.Exec(`INSERT INTO post_tags (slug, tag, position) VALUES (?, ?, ?)`, p.Slug, tag, i); err != nil {
			return fmt.Errorf("catalog: insert tag: %w", err)
		}
	}

	// Headings are stored in pre-order; parent refers to the parent's position.
	type item struct {
		node   *models.HeadingNode
		parent int
	}
	stack := make([]item, 0, len(p.Outline))
	for i := len(p.Outline) - 1; i >= 0; i-- {
		stack = append(stack, item{node: p.Outline[i], parent: -1})
	}
	position := 0
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var parent any
		if it.parent >= 0 {
			parent = it.parent
		}
		if _, err := tx.Exec(`INSERT INTO headings (slug, position, level, anchor, text, parent) VALUES (?, ?, ?, ?, ?, ?)`,
			p.Slug, position, it.node.Level, it.node.ID, it.node.Text, parent); err != nil {
			return fmt.Errorf("catalog: insert heading: %w", err)
		}
		for i := len(it.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{node: it.node.Children[i], parent: position})
		}
		position++
	}
	return nil
}
