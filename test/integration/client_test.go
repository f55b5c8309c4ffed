// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"

	. "github.com/onsi/gomega" //nolint:revive // gomega convention

	"github.com/storytable/storytable/internal/auth"
)

var userSeq atomic.Int64

// client is a browser-like API client with its own cookie jar.
type client struct {
	http     *http.Client
	username string
}

type node struct {
	ID        string   `json:"id"`
	OwnerID   string   `json:"ownerId"`
	Type      string   `json:"type"`
	ParentID  *string  `json:"parentId"`
	SortOrder int      `json:"sortOrder"`
	Name      string   `json:"name"`
	Markdown  *string  `json:"markdown"`
	Tags      []string `json:"tags"`
}

type treeNode struct {
	node
	Children []treeNode `json:"children"`
}

type treeBody struct {
	Nodes       []node                         `json:"nodes"`
	Tree        []treeNode                     `json:"tree"`
	LinksByNode map[string]map[string][]string `json:"linksByNode"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newUser registers a fresh account, grants roles directly through the
// service and logs in so the session reflects them.
func newUser(ctx context.Context, roles ...auth.RoleCode) *client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	c := &client{
		http:     &http.Client{Jar: jar},
		username: fmt.Sprintf("user%d", userSeq.Add(1)),
	}

	status, _ := c.do("POST", "/api/auth/register", map[string]string{
		"username": c.username,
		"password": "correct horse battery",
	})
	Expect(status).To(Equal(http.StatusCreated))

	for _, role := range roles {
		Expect(env.auth.GrantRole(ctx, c.username, role)).To(Succeed())
	}
	return c
}

func (c *client) do(method, path string, body any) (int, []byte) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, env.server.URL+path, r)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, data
}

func (c *client) createNode(parentID *string, typ, name string) node {
	status, data := c.do("POST", "/api/playground/nodes", map[string]any{
		"parentId": parentID,
		"type":     typ,
		"name":     name,
	})
	Expect(status).To(Equal(http.StatusCreated), string(data))
	var out struct {
		Node node `json:"node"`
	}
	Expect(json.Unmarshal(data, &out)).To(Succeed())
	return out.Node
}

func (c *client) tree() treeBody {
	status, data := c.do("GET", "/api/playground/tree", nil)
	Expect(status).To(Equal(http.StatusOK), string(data))
	var out treeBody
	Expect(json.Unmarshal(data, &out)).To(Succeed())
	return out
}

func errorCode(data []byte) string {
	var body errorBody
	Expect(json.Unmarshal(data, &body)).To(Succeed())
	return body.Error.Code
}
