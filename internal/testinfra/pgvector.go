// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPgVectorImage ships PostgreSQL with the vector extension installed.
	DefaultPgVectorImage = "pgvector/pgvector:pg16"

	pgPort     = "5432/tcp"
	pgUser     = "cinematch"
	pgPassword = "cinematch"
	pgDatabase = "cinematch"
)

// PgVectorContainer is a running pgvector database.
type PgVectorContainer struct {
	testcontainers.Container
	DSN string
}

// PgVectorOption configures NewPgVectorContainer.
type PgVectorOption func(*pgVectorConfig)

type pgVectorConfig struct {
	image        string
	startTimeout time.Duration
}

// WithPgVectorImage overrides the container image.
func WithPgVectorImage(image string) PgVectorOption {
	return func(c *pgVectorConfig) {
		c.image = image
	}
}

// NewPgVectorContainer starts a pgvector container and returns its DSN.
func NewPgVectorContainer(ctx context.Context, opts ...PgVectorOption) (*PgVectorContainer, error) {
	cfg := &pgVectorConfig{
		image:        DefaultPgVectorImage,
		startTimeout: 90 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{pgPort},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		// Postgres logs readiness twice: once for the init server, once for the real one.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(pgPort),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create pgvector container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, pgPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("container port: %w", err)
	}

	return &PgVectorContainer{
		Container: container,
		DSN:       fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, host, port.Port(), pgDatabase),
	}, nil
}
