// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package neighbor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/config"
)

const (
	backendPinecone = "pinecone"

	pineconeAPIVersion = "2025-01"

	// maxErrorBody bounds how much of a failure response is kept for errors.
	maxErrorBody = 512
	// maxResponseBody bounds a successful query response.
	maxResponseBody = 8 << 20
)

// PineconeClient queries a Pinecone index by vector id over the REST data
// plane. Vector ids are the decimal movie ids.
type PineconeClient struct {
	host       string
	apiKey     string
	namespace  string
	httpClient *http.Client
}

type pineconeQueryRequest struct {
	ID              string `json:"id"`
	TopK            int    `json:"topK"`
	IncludeMetadata bool   `json:"includeMetadata"`
	IncludeValues   bool   `json:"includeValues"`
	Namespace       string `json:"namespace,omitempty"`
}

type pineconeMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type pineconeQueryResponse struct {
	// Matches is a pointer so a missing field is distinguishable from [].
	Matches   *[]pineconeMatch `json:"matches"`
	Namespace string           `json:"namespace"`
}

// NewPineconeClient creates a client for the index at cfg.Host. A nil
// httpClient uses http.DefaultClient; deadlines come from the context.
func NewPineconeClient(cfg config.PineconeConfig, httpClient *http.Client) *PineconeClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PineconeClient{
		host:       strings.TrimRight(cfg.Host, "/"),
		apiKey:     cfg.APIKey,
		namespace:  cfg.Namespace,
		httpClient: httpClient,
	}
}

// QueryNeighbors implements Client.
func (c *PineconeClient) QueryNeighbors(ctx context.Context, movieID, count int) ([]Match, error) {
	if err := validateCount(count); err != nil {
		return nil, err
	}

	body, err := json.Marshal(pineconeQueryRequest{
		ID:              strconv.Itoa(movieID),
		TopK:            count,
		IncludeMetadata: true,
		Namespace:       c.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("encode pinecone query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Backend: backendPinecone, Op: "query", Err: err}
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Backend: backendPinecone, Op: "query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServiceError{
			Backend:    backendPinecone,
			Op:         "query",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &ServiceError{Backend: backendPinecone, Op: "query", Err: fmt.Errorf("read response: %w", err)}
	}

	var decoded pineconeQueryResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, noMatches(backendPinecone, movieID, "malformed response: "+err.Error())
	}
	if decoded.Matches == nil {
		return nil, noMatches(backendPinecone, movieID, "response has no matches field")
	}

	return convertPineconeMatches(movieID, *decoded.Matches, count)
}

func convertPineconeMatches(movieID int, raw []pineconeMatch, count int) ([]Match, error) {
	if len(raw) == 0 {
		return nil, noMatches(backendPinecone, movieID, "empty matches")
	}
	if len(raw) > count {
		raw = raw[:count]
	}

	matches := make([]Match, 0, len(raw))
	for _, m := range raw {
		id, err := strconv.Atoi(m.ID)
		if err != nil {
			return nil, noMatches(backendPinecone, movieID, fmt.Sprintf("malformed match id %q", m.ID))
		}
		matches = append(matches, Match{ItemID: id, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}
