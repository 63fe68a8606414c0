// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import "strings"

// GenreVocabulary is the controlled set of MovieLens genres.
var GenreVocabulary = []string{
	"Action", "Adventure", "Animation", "Children", "Comedy", "Crime",
	"Documentary", "Drama", "Fantasy", "Film-Noir", "Horror", "IMAX",
	"Mystery", "Romance", "Sci-Fi", "Thriller", "War", "Western",
}

// noGenres is the MovieLens placeholder for an empty genre set.
const noGenres = "(no genres listed)"

var canonicalGenres = func() map[string]string {
	m := make(map[string]string, len(GenreVocabulary))
	for _, g := range GenreVocabulary {
		m[strings.ToLower(g)] = g
	}
	return m
}()

// CanonicalGenre returns the vocabulary spelling of g, matched case
// insensitively, and whether g is in the vocabulary.
func CanonicalGenre(g string) (string, bool) {
	c, ok := canonicalGenres[strings.ToLower(strings.TrimSpace(g))]
	return c, ok
}

// ParseGenres splits a pipe or whitespace delimited genre string.
// Vocabulary genres are canonicalized, unknown tokens are kept verbatim and
// the MovieLens "(no genres listed)" placeholder yields an empty set.
func ParseGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == noGenres {
		return []string{}
	}

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == ' ' || r == '\t' || r == ','
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if c, ok := CanonicalGenre(f); ok {
			f = c
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
