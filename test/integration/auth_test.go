// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/storytable/storytable/internal/access"
	"github.com/storytable/storytable/internal/auth"
)

func accessScope(su *auth.SessionUser) access.Scope {
	return access.Resolve(su.Role).Scope(su.ID)
}

var _ = Describe("Accounts and sessions over PostgreSQL", func() {
	It("treats usernames case-insensitively", func(ctx context.Context) {
		c := newUser(ctx)
		dup := &client{http: &http.Client{}}
		status, data := dup.do("POST", "/api/auth/register", map[string]string{
			"username": "  " + strings.ToUpper(c.username), "password": "another password",
		})
		Expect(status).To(Equal(http.StatusConflict))
		Expect(errorCode(data)).To(Equal("CONFLICT"))
	})

	It("gives uniform login failures", func(ctx context.Context) {
		c := newUser(ctx)
		anon := &client{http: &http.Client{}}

		status, wrong := anon.do("POST", "/api/auth/login", map[string]string{"username": c.username, "password": "nope nope nope"})
		Expect(status).To(Equal(http.StatusUnauthorized))
		status, missing := anon.do("POST", "/api/auth/login", map[string]string{"username": "ghost_user", "password": "nope nope nope"})
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(wrong).To(Equal(missing))
	})

	It("resolves the primary role by precedence", func(ctx context.Context) {
		c := newUser(ctx, auth.RoleWorldBuilder, auth.RolePrivileged)
		su := sessionUser(ctx, c.username)
		Expect(su.Role).To(Equal(auth.RolePrivileged))

		Expect(env.auth.RevokeRole(ctx, c.username, auth.RolePrivileged)).To(Succeed())
		Expect(sessionUser(ctx, c.username).Role).To(Equal(auth.RoleWorldBuilder))
	})

	It("ends the session on logout", func(ctx context.Context) {
		c := newUser(ctx)
		status, _ := c.do("GET", "/api/auth/me", nil)
		Expect(status).To(Equal(http.StatusOK))

		status, _ = c.do("POST", "/api/auth/logout", nil)
		Expect(status).To(Equal(http.StatusNoContent))

		status, _ = c.do("GET", "/api/auth/me", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
	})

	It("ignores and purges expired sessions", func(ctx context.Context) {
		c := newUser(ctx)
		sess, _, err := env.auth.Login(ctx, c.username, "correct horse battery")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.pool.Exec(ctx, `UPDATE sessions SET expires_at = $2 WHERE id = $1`,
			sess.ID, time.Now().Add(-time.Minute))
		Expect(err).NotTo(HaveOccurred())

		su, err := env.auth.SessionUser(ctx, sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(su).To(BeNil())

		n, err := env.auth.PurgeExpiredSessions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeNumerically(">=", 1))
	})
})

func sessionUser(ctx context.Context, username string) *auth.SessionUser {
	sess, _, err := env.auth.Login(ctx, username, "correct horse battery")
	Expect(err).NotTo(HaveOccurred())
	su, err := env.auth.SessionUser(ctx, sess.ID)
	Expect(err).NotTo(HaveOccurred())
	Expect(su).NotTo(BeNil())
	return su
}
