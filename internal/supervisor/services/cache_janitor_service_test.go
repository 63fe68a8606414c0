// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingCache struct{ cleanups atomic.Int32 }

func (c *countingCache) CleanupExpired() int {
	c.cleanups.Add(1)
	return 1
}

func TestCacheJanitorService(t *testing.T) {
	cache := &countingCache{}
	svc := NewCacheJanitorService(cache, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for cache.cleanups.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestNewCacheJanitorService_DefaultInterval(t *testing.T) {
	svc := NewCacheJanitorService(&countingCache{}, 0, zerolog.Nop())
	if svc.interval != time.Minute {
		t.Errorf("interval = %v, want 1m", svc.interval)
	}
}
