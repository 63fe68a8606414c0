// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package api serves the Cinematch JSON API over a chi router.

Routes:

	GET /api/v1/recommendations?title=&count=&genre=&genres=
	GET /api/v1/movies?search=&limit=
	GET /api/v1/movies/{id}
	GET /api/v1/genres
	GET /health/live
	GET /health/ready
	GET /metrics

Every /api/v1 response uses the models.APIResponse envelope. Errors carry a
stable code:

	VALIDATION_ERROR      400  malformed or out of range parameters
	MOVIE_NOT_FOUND       404  unknown title or movie id
	RATE_LIMIT_EXCEEDED   429  per client rate limit
	CATALOG_INCONSISTENT  500  the index returned a movie the catalog lacks
	INDEX_UNAVAILABLE     503  the neighbor index failed or its breaker is open
	INTERNAL_ERROR        500  anything else
*/
package api
