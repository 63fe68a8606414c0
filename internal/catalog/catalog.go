// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is wrapped by every lookup miss.
var ErrNotFound = errors.New("not found")

// ErrDuplicateTitle is returned by New when duplicates are rejected.
var ErrDuplicateTitle = errors.New("duplicate title")

// ErrDuplicateID is returned by New when two entries share a movie id.
var ErrDuplicateID = errors.New("duplicate movie id")

// NotFoundError reports a title or movie id the catalog does not contain.
type NotFoundError struct {
	// Kind is "title" or "movie_id".
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("movie %s %q: %s", e.Kind, e.Key, ErrNotFound)
}

// Unwrap lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Entry is one known movie.
type Entry struct {
	MovieID int      `json:"movie_id"`
	Title   string   `json:"title"`
	Genres  []string `json:"genres"`

	// ExternalRefID is the numeric IMDb id without the "tt" prefix.
	// Empty when the movie has no cross reference.
	ExternalRefID string `json:"external_ref_id,omitempty"`
}

// Duplicate records a row whose title was already taken by an earlier row.
type Duplicate struct {
	Title      string `json:"title"`
	KeptID     int    `json:"kept_id"`
	ShadowedID int    `json:"shadowed_id"`
}

// Catalog is an immutable snapshot of the movie catalog. It is safe for
// concurrent use without locking because nothing mutates it after New.
type Catalog struct {
	byTitle    map[string]int
	byID       map[int]Entry
	order      []int
	genres     []string
	duplicates []Duplicate
}

// Option configures New.
type Option func(*options)

type options struct {
	rejectDuplicates bool
}

// WithRejectDuplicates makes a repeated title an error instead of letting the
// first row win.
func WithRejectDuplicates(reject bool) Option {
	return func(o *options) {
		o.rejectDuplicates = reject
	}
}

// New builds a catalog from entries in load order. When two entries share a
// title the first one wins ResolveID and the later ones are reported by
// Duplicates.
func New(entries []Entry, opts ...Option) (*Catalog, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Catalog{
		byTitle: make(map[string]int, len(entries)),
		byID:    make(map[int]Entry, len(entries)),
		order:   make([]int, 0, len(entries)),
	}
	seenGenres := make(map[string]struct{})

	for i := range entries {
		e := entries[i]
		if _, exists := c.byID[e.MovieID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, e.MovieID)
		}

		e.Genres = append([]string(nil), e.Genres...)
		c.byID[e.MovieID] = e
		c.order = append(c.order, e.MovieID)
		for _, g := range e.Genres {
			seenGenres[g] = struct{}{}
		}

		if kept, exists := c.byTitle[e.Title]; exists {
			if o.rejectDuplicates {
				return nil, fmt.Errorf("%w: %q (movie ids %d and %d)", ErrDuplicateTitle, e.Title, kept, e.MovieID)
			}
			c.duplicates = append(c.duplicates, Duplicate{Title: e.Title, KeptID: kept, ShadowedID: e.MovieID})
			continue
		}
		c.byTitle[e.Title] = e.MovieID
	}

	c.genres = make([]string, 0, len(seenGenres))
	for g := range seenGenres {
		c.genres = append(c.genres, g)
	}
	sort.Strings(c.genres)

	return c, nil
}

// ResolveID returns the id of the entry whose title exactly equals title.
func (c *Catalog) ResolveID(title string) (int, error) {
	id, ok := c.byTitle[title]
	if !ok {
		return 0, &NotFoundError{Kind: "title", Key: title}
	}
	return id, nil
}

// ResolveAttributes returns the entry for movieID.
func (c *Catalog) ResolveAttributes(movieID int) (Entry, error) {
	e, ok := c.byID[movieID]
	if !ok {
		return Entry{}, &NotFoundError{Kind: "movie_id", Key: strconv.Itoa(movieID)}
	}
	e.Genres = append([]string(nil), e.Genres...)
	return e, nil
}

// Search returns up to limit entries whose title contains query, case
// insensitively, ordered by title. An empty query matches everything.
func (c *Catalog) Search(query string, limit int) []Entry {
	needle := strings.ToLower(strings.TrimSpace(query))
	matches := make([]Entry, 0)
	for _, id := range c.order {
		e := c.byID[id]
		if needle == "" || strings.Contains(strings.ToLower(e.Title), needle) {
			e.Genres = append([]string(nil), e.Genres...)
			matches = append(matches, e)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Title < matches[j].Title
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.byID)
}

// Genres returns the sorted set of genres present in the catalog.
func (c *Catalog) Genres() []string {
	return append([]string(nil), c.genres...)
}

// Duplicates returns rows shadowed by an earlier row with the same title.
func (c *Catalog) Duplicates() []Duplicate {
	return append([]Duplicate(nil), c.duplicates...)
}
