// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"              // sqlite driver
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LoadSQL reads the catalog table from SQLite or PostgreSQL. The DSN scheme
// picks the driver: sqlite:///path/to/file.db or postgres://user@host/db.
func LoadSQL(ctx context.Context, dsn, table string) ([]Entry, error) {
	driver, source, err := sqlDriver(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	defer db.Close()

	return queryTable(ctx, db, table)
}

// LoadDuckDB reads the catalog through DuckDB. With a DSN it reads table
// from that database file. Without one it opens an in-memory database and
// reads the MovieLens CSV files with read_csv_auto.
func LoadDuckDB(ctx context.Context, dsn, table, moviesPath, linksPath string) ([]Entry, error) {
	source := dsn
	if source == "" {
		source = ":memory:"
	}

	db, err := sql.Open("duckdb", source+"?access_mode=automatic&autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	if dsn != "" {
		return queryTable(ctx, db, table)
	}
	return scanEntries(ctx, db, duckDBCSVQuery(moviesPath, linksPath))
}

func duckDBCSVQuery(moviesPath, linksPath string) string {
	movies := fmt.Sprintf(
		"SELECT *, row_number() OVER () AS rn FROM read_csv_auto(%s, header=true, all_varchar=true, delim=',', quote='\"')",
		quoteLiteral(moviesPath))

	if linksPath == "" {
		return fmt.Sprintf(`SELECT CAST(m.movieId AS BIGINT), m.title, COALESCE(m.genres, ''), ''
			FROM (%s) m ORDER BY m.rn`, movies)
	}

	return fmt.Sprintf(`SELECT CAST(m.movieId AS BIGINT), m.title, COALESCE(m.genres, ''), COALESCE(l.imdbId, '')
		FROM (%s) m
		LEFT JOIN read_csv_auto(%s, header=true, all_varchar=true, delim=',', quote='"') l ON l.movieId = m.movieId
		ORDER BY m.rn`, movies, quoteLiteral(linksPath))
}

func queryTable(ctx context.Context, db *sql.DB, table string) ([]Entry, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	query := fmt.Sprintf(
		"SELECT movie_id, title, COALESCE(genres, ''), COALESCE(CAST(imdb_id AS TEXT), '') FROM %s ORDER BY movie_id",
		table)
	return scanEntries(ctx, db, query)
}

func scanEntries(ctx context.Context, db *sql.DB, query string) ([]Entry, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			genres, imdb string
		)
		if err := rows.Scan(&e.MovieID, &e.Title, &genres, &imdb); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		e.Genres = ParseGenres(genres)
		e.ExternalRefID = normalizeExternalRef(imdb)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return entries, nil
}

func sqlDriver(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, nil
	default:
		return "", "", errors.New("unsupported catalog DSN: expected a sqlite:// or postgres:// prefix")
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
