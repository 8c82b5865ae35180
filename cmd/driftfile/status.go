// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/driftfile/driftfile/internal/config"
)

// statusTimeout bounds each health probe request.
const statusTimeout = 3 * time.Second

// statusClient is swappable in tests.
var statusClient = &http.Client{Timeout: statusTimeout}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show health of a running auth service",
		Long:  `Probe the liveness and readiness endpoints of a running auth service.`,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Observability.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("observability.addr is not configured, nothing to probe")
	}

	base := "http://" + cfg.Observability.Addr

	live := probe(cmd.Context(), base+"/healthz/liveness")
	ready := probe(cmd.Context(), base+"/healthz/readiness")

	cmd.Printf("liveness:  %s\n", live)
	cmd.Printf("readiness: %s\n", ready)

	if live != "ok" || ready != "ok" {
		return oops.Code("STATUS_UNHEALTHY").Errorf("service is not healthy")
	}
	return nil
}

// probe returns "ok", "not ready" or an unreachable description for one
// health endpoint.
func probe(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Sprintf("unreachable (%v)", err)
	}
	resp, err := statusClient.Do(req)
	if err != nil {
		return fmt.Sprintf("unreachable (%v)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		return "ok"
	}
	return fmt.Sprintf("not ready (status %d)", resp.StatusCode)
}
