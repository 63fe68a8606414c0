// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"strings"
	"testing"
)

func TestLoadCSV(t *testing.T) {
	entries, err := LoadCSV("testdata/movies.csv", "testdata/links.csv")
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("got %d entries, want 8", len(entries))
	}

	toy := entries[0]
	if toy.MovieID != 1 || toy.Title != "Toy Story (1995)" || toy.ExternalRefID != "0114709" {
		t.Errorf("entries[0] = %+v", toy)
	}
	if len(toy.Genres) != 5 || toy.Genres[1] != "Animation" {
		t.Errorf("Toy Story genres = %v", toy.Genres)
	}

	last := entries[7]
	if len(last.Genres) != 0 {
		t.Errorf("no-genre placeholder should yield empty genres, got %v", last.Genres)
	}
	if last.ExternalRefID != "" {
		t.Errorf("movie without link should have empty ExternalRefID, got %q", last.ExternalRefID)
	}
}

func TestLoadCSV_WithoutLinks(t *testing.T) {
	entries, err := LoadCSV("testdata/movies.csv", "")
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	for _, e := range entries {
		if e.ExternalRefID != "" {
			t.Errorf("movie %d has ExternalRefID %q without a links file", e.MovieID, e.ExternalRefID)
		}
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	if _, err := LoadCSV("testdata/nope.csv", ""); err == nil {
		t.Fatal("expected error for missing movies file")
	}
	if _, err := LoadCSV("testdata/movies.csv", "testdata/nope.csv"); err == nil {
		t.Fatal("expected error for missing links file")
	}
}

func TestReadMovies(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		wantRef string
	}{
		{
			name:    "inline imdb column with tt prefix",
			input:   "movie_id,title,genres,imdb_id\n1,Toy Story,Animation|Comedy,tt0114709\n",
			wantRef: "0114709",
		},
		{
			name:    "byte order mark in header",
			input:   "\ufeffmovieId,title\n1,Toy Story\n",
			wantRef: "",
		},
		{
			name:    "missing title column",
			input:   "movieId,genres\n1,Comedy\n",
			wantErr: "title",
		},
		{
			name:    "bad movie id",
			input:   "movieId,title\nabc,Toy Story\n",
			wantErr: "invalid movie id",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: "header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ReadMovies(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ReadMovies() error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMovies() error = %v", err)
			}
			if len(entries) != 1 || entries[0].ExternalRefID != tt.wantRef {
				t.Errorf("entries = %+v", entries)
			}
		})
	}
}

func TestReadLinks(t *testing.T) {
	links, err := ReadLinks(strings.NewReader("movieId,imdbId,tmdbId\n1,0114709,862\n2,,\n"))
	if err != nil {
		t.Fatalf("ReadLinks() error = %v", err)
	}
	if links[1] != "0114709" {
		t.Errorf("links[1] = %q", links[1])
	}
	if _, ok := links[2]; ok {
		t.Error("empty imdb id should be skipped")
	}

	if _, err := ReadLinks(strings.NewReader("movieId,tmdbId\n1,862\n")); err == nil {
		t.Error("expected error without imdbId column")
	}
}
