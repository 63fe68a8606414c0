// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package neighbor

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/tomtom215/cinematch/internal/config"
)

const backendPgVector = "pgvector"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PgVectorClient queries a pgvector table shaped as
//
//	movie_id BIGINT PRIMARY KEY, embedding vector(n), metadata JSONB
//
// Neighbors are ordered by cosine distance to the queried movie's own
// embedding, so the movie itself ranks first at distance 0.
type PgVectorClient struct {
	db    *sql.DB
	query string
}

// NewPgVectorClient opens the database and verifies connectivity.
func NewPgVectorClient(ctx context.Context, cfg config.PgVectorConfig) (*PgVectorClient, error) {
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid pgvector table name %q", cfg.Table)
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return newPgVectorClient(db, cfg.Table), nil
}

func newPgVectorClient(db *sql.DB, table string) *PgVectorClient {
	return &PgVectorClient{
		db: db,
		query: fmt.Sprintf(`
			WITH q AS (SELECT embedding FROM %[1]s WHERE movie_id = $1)
			SELECT e.movie_id, 1 - (e.embedding <=> q.embedding) AS score, COALESCE(e.metadata, '{}'::jsonb)
			FROM %[1]s e, q
			ORDER BY e.embedding <=> q.embedding
			LIMIT $2`, table),
	}
}

// QueryNeighbors implements Client.
func (c *PgVectorClient) QueryNeighbors(ctx context.Context, movieID, count int) ([]Match, error) {
	if err := validateCount(count); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, c.query, movieID, count)
	if err != nil {
		return nil, &ServiceError{Backend: backendPgVector, Op: "query", Err: err}
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m        Match
			metadata []byte
		)
		if err := rows.Scan(&m.ItemID, &m.Score, &metadata); err != nil {
			return nil, &ServiceError{Backend: backendPgVector, Op: "scan", Err: err}
		}
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return nil, noMatches(backendPgVector, movieID, "malformed metadata: "+err.Error())
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &ServiceError{Backend: backendPgVector, Op: "query", Err: err}
	}

	if len(matches) == 0 {
		return nil, noMatches(backendPgVector, movieID, "movie has no embedding")
	}
	return matches, nil
}

// Ping checks database connectivity.
func (c *PgVectorClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database handle.
func (c *PgVectorClient) Close() error {
	return c.db.Close()
}
