// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package recommend turns a movie title into a ranked list of similar movies.

The Assembler runs one synchronous pipeline per call:

 1. Resolve the title to a movie id through the catalog.
 2. Ask the neighbor index for count+1 neighbors.
 3. Drop every match whose id is the queried movie.
 4. Read display fields from the match metadata, apply the genre filter,
    and join the external reference id from the catalog.
 5. Return at most count records.

Outcomes:

  - Unknown title: catalog.ErrNotFound.
  - Index answered with nothing usable: an empty, non-nil slice and no error.
  - Index unreachable, failing or breaker open: neighbor.ErrService.
  - Index references a movie the catalog lacks: *ConsistencyError.

The genre filter is applied after the index query, so filtered requests can
return fewer than count records even when the catalog has more matches.

Both collaborators are injected through NewAssembler. Nothing is read from
package globals, which keeps the pipeline testable with fakes.

CachedAssembler decorates any Recommender with a bounded TTL cache of
successful results:

	asm := recommend.NewAssembler(cat, index, recommend.WithLogger(logger))
	rec := recommend.NewCachedAssembler(asm, cfg.Recommend.CacheSize, cfg.Recommend.CacheTTL)
	records, err := rec.Recommend(ctx, recommend.Request{Title: "Toy Story", Count: 10})
*/
package recommend
