// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package web_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/driftfile/driftfile/internal/auth"
	"github.com/driftfile/driftfile/internal/auth/mocks"
	"github.com/driftfile/driftfile/internal/web"
)

func newTestServer(t *testing.T) *web.Server {
	t.Helper()

	registry, err := auth.NewRegistry(mocks.NewMockAccountRepository(t))
	require.NoError(t, err)
	otp, err := auth.NewOTPService(mocks.NewMockCodeRepository(t), mocks.NewMockCodeSender(t), auth.OTPConfig{})
	require.NoError(t, err)
	sessions, err := auth.NewSessionService(mocks.NewMockAccountRepository(t), mocks.NewMockSessionRepository(t), 0, nil)
	require.NoError(t, err)
	flow, err := auth.NewFlow(registry, otp, sessions)
	require.NoError(t, err)

	server, err := web.NewServer(flow, web.Options{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	return server
}

func TestNewServer_Validation(t *testing.T) {
	_, err := web.NewServer(nil, web.Options{Addr: "127.0.0.1:0"})
	require.Error(t, err)

	registry, err := auth.NewRegistry(mocks.NewMockAccountRepository(t))
	require.NoError(t, err)
	otp, err := auth.NewOTPService(mocks.NewMockCodeRepository(t), mocks.NewMockCodeSender(t), auth.OTPConfig{})
	require.NoError(t, err)
	sessions, err := auth.NewSessionService(mocks.NewMockAccountRepository(t), mocks.NewMockSessionRepository(t), 0, nil)
	require.NoError(t, err)
	flow, err := auth.NewFlow(registry, otp, sessions)
	require.NoError(t, err)

	_, err = web.NewServer(flow, web.Options{})
	require.Error(t, err)
}

func TestServer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	server := newTestServer(t)

	errCh, err := server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr())

	// The listener answers requests.
	resp, err := http.Get("http://" + server.Addr() + "/api/auth/role")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	// Graceful stop closes the error channel without an error.
	select {
	case serveErr, ok := <-errCh:
		assert.False(t, ok, "unexpected error from server: %v", serveErr)
	case <-time.After(time.Second):
		t.Fatal("error channel not closed after Stop")
	}
}

func TestServer_DoubleStart(t *testing.T) {
	server := newTestServer(t)

	_, err := server.Start()
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}()

	_, err = server.Start()
	require.Error(t, err)
}

func TestServer_StopWhenNotRunning(t *testing.T) {
	server := newTestServer(t)
	require.NoError(t, server.Stop(context.Background()))
}
