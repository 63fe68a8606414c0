// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE movies (movie_id INTEGER PRIMARY KEY, title TEXT NOT NULL, genres TEXT, imdb_id INTEGER)`,
		`INSERT INTO movies VALUES (2, 'Jumanji', 'Adventure Fantasy', 113497)`,
		`INSERT INTO movies VALUES (1, 'Toy Story', 'Animation|Comedy', 114709)`,
		`INSERT INTO movies VALUES (3, 'Unlinked', NULL, NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return path
}

func TestLoadSQL_SQLite(t *testing.T) {
	path := seedSQLite(t)

	entries, err := LoadSQL(context.Background(), "sqlite://"+path, "movies")
	if err != nil {
		t.Fatalf("LoadSQL() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	if entries[0].MovieID != 1 || entries[0].Title != "Toy Story" {
		t.Errorf("entries should be ordered by movie_id, got %+v", entries[0])
	}
	if entries[0].ExternalRefID != "114709" {
		t.Errorf("ExternalRefID = %q, want 114709", entries[0].ExternalRefID)
	}
	if got := strings.Join(entries[1].Genres, ","); got != "Adventure,Fantasy" {
		t.Errorf("genres = %q", got)
	}
	if entries[2].ExternalRefID != "" || len(entries[2].Genres) != 0 {
		t.Errorf("NULL columns should map to empty values, got %+v", entries[2])
	}
}

func TestLoadSQL_InvalidTable(t *testing.T) {
	path := seedSQLite(t)

	_, err := LoadSQL(context.Background(), "sqlite://"+path, "movies; DROP TABLE movies")
	if err == nil || !strings.Contains(err.Error(), "invalid catalog table name") {
		t.Fatalf("LoadSQL() error = %v, want invalid table name", err)
	}
}

func TestLoadSQL_UnsupportedDSN(t *testing.T) {
	_, err := LoadSQL(context.Background(), "mysql://localhost/movies", "movies")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("LoadSQL() error = %v, want unsupported DSN", err)
	}
}

func TestLoadDuckDB_CSV(t *testing.T) {
	entries, err := LoadDuckDB(context.Background(), "", "", "testdata/movies.csv", "testdata/links.csv")
	if err != nil {
		t.Fatalf("LoadDuckDB() error = %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("got %d entries, want 8", len(entries))
	}

	byID := make(map[int]Entry, len(entries))
	for _, e := range entries {
		byID[e.MovieID] = e
	}
	if byID[1].ExternalRefID != "0114709" {
		t.Errorf("leading zeros should survive, got %q", byID[1].ExternalRefID)
	}
	if byID[8].ExternalRefID != "" {
		t.Errorf("unlinked movie ExternalRefID = %q", byID[8].ExternalRefID)
	}
	if entries[0].MovieID != 1 || entries[len(entries)-1].MovieID != 8 {
		t.Errorf("file order not preserved: first=%d last=%d", entries[0].MovieID, entries[len(entries)-1].MovieID)
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := quoteLiteral("/data/o'brien.csv"); got != "'/data/o''brien.csv'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
}
