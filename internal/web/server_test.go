// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/storytable/storytable/pkg/errutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_Validation(t *testing.T) {
	f := newAPIFixture(t)

	_, err := New(Config{Tree: f.tree})
	errutil.AssertErrorCode(t, err, "WEB_INVALID_CONFIG")
	_, err = New(Config{Auth: f.auth})
	errutil.AssertErrorCode(t, err, "WEB_INVALID_CONFIG")
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = f.do(t, http.MethodDelete, "/api/playground/tree", f.builder("alice"), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAccessLog(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodGet, "/api/playground/tree", "", nil)

	logs := f.logs.String()
	assert.Contains(t, logs, `"msg":"http request"`)
	assert.Contains(t, logs, `"route":"/api/playground/`)
	assert.Contains(t, logs, `"status":401`)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	f := newAPIFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/auth/me")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	f := newAPIFixture(t)
	err := f.server.ListenAndServe(context.Background(), "127.0.0.1:-1")
	errutil.AssertErrorCode(t, err, "HTTP_LISTEN_FAILED")
}
