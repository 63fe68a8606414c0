// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package catalog holds the read-only movie catalog used to resolve titles to
movie ids and movie ids to display attributes.

A Catalog is built once at startup from one of three sources:

  - csv: MovieLens movies.csv plus an optional links.csv
  - duckdb: the same CSV files read through DuckDB's read_csv_auto, or a
    table in a .duckdb file
  - sql: a table in SQLite (sqlite://path) or PostgreSQL (postgres://...)

SQL tables are expected to expose the columns movie_id, title, genres and
imdb_id. Genres may be pipe or space delimited.

Lookups return a *NotFoundError wrapping ErrNotFound:

	id, err := cat.ResolveID("Toy Story (1995)")
	if errors.Is(err, catalog.ErrNotFound) {
	    // unknown title
	}

# Duplicate Titles

MovieLens contains a handful of titles that appear under two movie ids. By
default the first row in load order wins ResolveID and later rows remain
reachable by id only; Duplicates lists them. WithRejectDuplicates turns
them into a load error.
*/
package catalog
