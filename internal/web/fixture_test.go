// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/stretchr/testify/require"

	"github.com/storytable/storytable/internal/auth"
	"github.com/storytable/storytable/internal/observability"
	"github.com/storytable/storytable/internal/playground"
	"github.com/storytable/storytable/internal/playground/playgroundtest"
)

// fakeAuth is an in-memory Authenticator keyed by session id.
type fakeAuth struct {
	mu        sync.Mutex
	users     map[string]*auth.SessionUser
	passwords map[string]string
	sessions  map[string]*auth.SessionUser
	lookupErr error
	seq       int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users:     map[string]*auth.SessionUser{},
		passwords: map[string]string{},
		sessions:  map[string]*auth.SessionUser{},
	}
}

func (f *fakeAuth) addUser(username, password string, role auth.RoleCode) *auth.SessionUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &auth.SessionUser{ID: ulid.Make(), Username: username, Role: role}
	f.users[username] = u
	f.passwords[username] = password
	return u
}

// login creates a session for an existing user and returns its id.
func (f *fakeAuth) login(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newSessionLocked(f.users[username])
}

func (f *fakeAuth) newSessionLocked(u *auth.SessionUser) string {
	f.seq++
	id := fmt.Sprintf("session-%d", f.seq)
	f.sessions[id] = u
	return id
}

func (f *fakeAuth) session(id string, u *auth.SessionUser) *auth.Session {
	return &auth.Session{ID: id, UserID: u.ID, ExpiresAt: time.Now().Add(auth.SessionTTL)}
}

func (f *fakeAuth) Register(_ context.Context, in auth.CreateUserInput) (*auth.Session, *auth.User, error) {
	if in.Password == "" {
		return nil, nil, oops.Code(auth.CodeInvalidPassword).Errorf("password is required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.users[in.Username]; taken {
		return nil, nil, oops.Code(auth.CodeUsernameTaken).Wrap(fmt.Errorf("duplicate key value violates unique constraint"))
	}
	u := &auth.SessionUser{ID: ulid.Make(), Username: in.Username, Role: auth.RoleFree}
	f.users[in.Username] = u
	f.passwords[in.Username] = in.Password
	id := f.newSessionLocked(u)
	return f.session(id, u), &auth.User{ID: u.ID, Username: u.Username, Active: true}, nil
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*auth.Session, *auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok || f.passwords[username] != password {
		return nil, nil, oops.Code(auth.CodeInvalidCredentials).Errorf("invalid username or password")
	}
	id := f.newSessionLocked(u)
	return f.session(id, u), &auth.User{ID: u.ID, Username: u.Username, Active: true}, nil
}

func (f *fakeAuth) DestroySession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeAuth) SessionUser(_ context.Context, sessionID string) (*auth.SessionUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.sessions[sessionID], nil
}

type apiFixture struct {
	auth    *fakeAuth
	store   *playgroundtest.MemoryStore
	tree    *playground.Service
	server  *Server
	metrics *observability.Metrics
	logs    *bytes.Buffer
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		auth:    newFakeAuth(),
		store:   playgroundtest.NewMemoryStore(),
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
		logs:    &bytes.Buffer{},
	}
	tree, err := playground.NewService(playground.ServiceConfig{
		Nodes:      f.store,
		Links:      f.store,
		Transactor: &playgroundtest.Transactor{},
	})
	require.NoError(t, err)
	f.tree = tree

	srv, err := New(Config{
		Auth:    f.auth,
		Tree:    tree,
		Logger:  slog.New(slog.NewJSONHandler(f.logs, nil)),
		Metrics: f.metrics,
	})
	require.NoError(t, err)
	f.server = srv
	return f
}

// builder registers a world_builder and returns a session id.
func (f *apiFixture) builder(username string) string {
	f.auth.addUser(username, "secret-password", auth.RoleWorldBuilder)
	return f.auth.login(username)
}

func (f *apiFixture) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, rec).Error.Code
}

// createNode posts a node and returns its decoded JSON.
func (f *apiFixture) createNode(t *testing.T, sessionID string, parentID *string, typ, name string) nodeJSON {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/playground/nodes", sessionID, createNodeRequest{
		ParentID: parentID, Type: typ, Name: name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[nodeResponse](t, rec).Node
}

func (f *apiFixture) settingChain(t *testing.T, sessionID string) nodeJSON {
	t.Helper()
	c := f.createNode(t, sessionID, nil, "cosmos", "Aether")
	w := f.createNode(t, sessionID, &c.ID, "world", "Ninth Spire")
	e := f.createNode(t, sessionID, &w.ID, "era", "First Age")
	return f.createNode(t, sessionID, &e.ID, "setting", "Harbor")
}
