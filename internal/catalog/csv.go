// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// header aliases accepted for each catalog column.
var (
	movieIDColumns = []string{"movieid", "movie_id", "id"}
	titleColumns   = []string{"title", "movie_name"}
	genresColumns  = []string{"genres", "movie_genre", "genre"}
	imdbColumns    = []string{"imdbid", "imdb_id", "external_ref_id"}
)

// LoadCSV reads a movies file and an optional links file. A missing
// links file path is allowed; a links file that cannot be opened is not.
func LoadCSV(moviesPath, linksPath string) ([]Entry, error) {
	mf, err := os.Open(moviesPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open movies file: %w", err)
	}
	defer mf.Close()

	entries, err := ReadMovies(mf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", moviesPath, err)
	}

	if linksPath == "" {
		return entries, nil
	}

	lf, err := os.Open(linksPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open links file: %w", err)
	}
	defer lf.Close()

	links, err := ReadLinks(lf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", linksPath, err)
	}
	return applyLinks(entries, links), nil
}

// ReadMovies parses a movies CSV with a header row. The movieId and title
// columns are required; genres and imdbId are optional.
func ReadMovies(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	idCol, titleCol := cols.find(movieIDColumns), cols.find(titleColumns)
	if idCol < 0 || titleCol < 0 {
		return nil, errors.New("header must contain movieId and title columns")
	}
	genresCol, imdbCol := cols.find(genresColumns), cols.find(imdbColumns)

	var entries []Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.Atoi(strings.TrimSpace(rec[idCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid movie id %q", line, rec[idCol])
		}
		e := Entry{MovieID: id, Title: strings.TrimSpace(rec[titleCol]), Genres: []string{}}
		if genresCol >= 0 {
			e.Genres = ParseGenres(rec[genresCol])
		}
		if imdbCol >= 0 {
			e.ExternalRefID = normalizeExternalRef(rec[imdbCol])
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadLinks parses a MovieLens links CSV into movieId -> imdbId.
func ReadLinks(r io.Reader) (map[int]string, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	idCol, imdbCol := cols.find(movieIDColumns), cols.find(imdbColumns)
	if idCol < 0 || imdbCol < 0 {
		return nil, errors.New("header must contain movieId and imdbId columns")
	}

	links := make(map[int]string)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[idCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid movie id %q", line, rec[idCol])
		}
		if ref := normalizeExternalRef(rec[imdbCol]); ref != "" {
			links[id] = ref
		}
	}
	return links, nil
}

func applyLinks(entries []Entry, links map[int]string) []Entry {
	for i := range entries {
		if ref, ok := links[entries[i].MovieID]; ok && entries[i].ExternalRefID == "" {
			entries[i].ExternalRefID = ref
		}
	}
	return entries
}

// normalizeExternalRef strips whitespace and a leading "tt".
func normalizeExternalRef(raw string) string {
	ref := strings.TrimSpace(raw)
	ref = strings.TrimPrefix(ref, "tt")
	return ref
}

type headerIndex map[string]int

func indexHeader(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		idx[h] = i
	}
	return idx
}

func (h headerIndex) find(aliases []string) int {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i
		}
	}
	return -1
}
