package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Load reads a prebuilt corpus snapshot. Files ending in .db, .sqlite or
// .sqlite3 are read as SQLite databases, everything else as JSON.
func Load(ctx context.Context, path string) (*Index, error) {
	var (
		passages []Passage
		err      error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		passages, err = loadSQLite(ctx, path)
	default:
		passages, err = loadJSON(path)
	}
	if err != nil {
		return nil, err
	}

	idx, err := NewIndex(passages)
	if err != nil {
		return nil, fmt.Errorf("build index from %s: %w", path, err)
	}
	log.Printf("[retrieval] loaded %d passages (dim=%d) from %s", idx.Len(), idx.Dim(), path)
	return idx, nil
}

type jsonPassage struct {
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// loadJSON reads [{"content": ..., "embedding": [...]}, ...].
func loadJSON(path string) ([]Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var raw []jsonPassage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}

	passages := make([]Passage, len(raw))
	for i, r := range raw {
		passages[i] = Passage{ID: i, Content: r.Content, Vector: r.Embedding}
	}
	return passages, nil
}

// loadSQLite reads the passages table: id, content, embedding (JSON array).
func loadSQLite(ctx context.Context, path string) ([]Passage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT content, embedding FROM passages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var (
			content string
			blob    []byte
		)
		if err := rows.Scan(&content, &blob); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}

		var vector []float32
		if err := json.Unmarshal(blob, &vector); err != nil {
			return nil, fmt.Errorf("decoding embedding of passage %d: %w", len(passages), err)
		}
		passages = append(passages, Passage{ID: len(passages), Content: content, Vector: vector})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}
	return passages, nil
}
