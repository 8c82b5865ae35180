// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

// Package store provides database connectivity and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry configuration. Startup races with the database coming up
// in containerized deployments, so the first ping is retried with backoff.
const (
	connectRetryBase = 500 * time.Millisecond
	connectRetryMax  = 5
)

// Connect opens a pgx connection pool and verifies it with a ping. The ping
// is retried with capped exponential backoff before giving up.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectRetryMax, retry.NewExponential(connectRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
