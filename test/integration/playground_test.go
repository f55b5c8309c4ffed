// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/storytable/storytable/internal/auth"
	"github.com/storytable/storytable/internal/playground/importer"
)

var _ = Describe("Playground over PostgreSQL", func() {
	var builder *client

	BeforeEach(func(ctx context.Context) {
		builder = newUser(ctx, auth.RoleWorldBuilder)
	})

	It("rejects anonymous and free users", func(ctx context.Context) {
		anon := &client{http: &http.Client{}}
		status, data := anon.do("GET", "/api/playground/tree", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(data)).To(Equal("UNAUTHORIZED"))

		free := newUser(ctx)
		status, data = free.do("GET", "/api/playground/tree", nil)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(errorCode(data)).To(Equal("FORBIDDEN"))
	})

	It("builds a hierarchy with sibling sort order", func() {
		cosmos := builder.createNode(nil, "cosmos", "Prime")
		Expect(cosmos.SortOrder).To(Equal(0))

		w1 := builder.createNode(&cosmos.ID, "world", "Aerth")
		w2 := builder.createNode(&cosmos.ID, "world", "Brin")
		Expect(w1.SortOrder).To(Equal(0))
		Expect(w2.SortOrder).To(Equal(1))

		era := builder.createNode(&w1.ID, "era", "First Age")
		setting := builder.createNode(&era.ID, "setting", "Harbor Town")
		page := builder.createNode(&setting.ID, "page", "Notes")
		Expect(page.Markdown).NotTo(BeNil())
		Expect(*page.Markdown).To(BeEmpty())
		Expect(setting.Markdown).To(BeNil())

		tree := builder.tree()
		Expect(tree.Nodes).To(HaveLen(6))
		Expect(tree.Tree).To(HaveLen(1))
		Expect(tree.Tree[0].Children).To(HaveLen(2))
		Expect(tree.Tree[0].Children[0].Name).To(Equal("Aerth"))
	})

	It("rejects a setting directly under a cosmos without writing", func() {
		cosmos := builder.createNode(nil, "cosmos", "Prime")
		status, data := builder.do("POST", "/api/playground/nodes", map[string]any{
			"parentId": cosmos.ID, "type": "setting", "name": "Too Early",
		})
		Expect(status).To(Equal(http.StatusUnprocessableEntity))
		Expect(errorCode(data)).To(Equal("INVALID_PARENT_CHILD_RELATIONSHIP"))
		Expect(builder.tree().Nodes).To(HaveLen(1))
	})

	It("hides other tenants' nodes", func(ctx context.Context) {
		cosmos := builder.createNode(nil, "cosmos", "Private")
		other := newUser(ctx, auth.RoleWorldBuilder)

		status, data := other.do("GET", "/api/playground/nodes/"+cosmos.ID, nil)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(errorCode(data)).To(Equal("NOT_FOUND"))

		status, data = other.do("POST", "/api/playground/nodes", map[string]any{
			"parentId": cosmos.ID, "type": "world", "name": "Intruder",
		})
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(errorCode(data)).To(Equal("PARENT_NOT_FOUND"))
		Expect(other.tree().Nodes).To(BeEmpty())

		admin := newUser(ctx, auth.RoleAdmin)
		status, _ = admin.do("GET", "/api/playground/nodes/"+cosmos.ID, nil)
		Expect(status).To(Equal(http.StatusOK))
	})

	It("replaces setting links and cascades deletes", func(ctx context.Context) {
		cosmos := builder.createNode(nil, "cosmos", "Prime")
		world := builder.createNode(&cosmos.ID, "world", "Aerth")
		era := builder.createNode(&world.ID, "era", "Age")
		setting := builder.createNode(&era.ID, "setting", "Town")

		status, data := builder.do("PUT", "/api/playground/nodes/"+setting.ID+"/links", map[string]any{
			"links": map[string]any{"race": []any{"r1", " r1 ", "", "r2", 7}, "npc": []any{"n1"}},
		})
		Expect(status).To(Equal(http.StatusOK), string(data))
		var got struct {
			Links map[string][]string `json:"links"`
		}
		Expect(json.Unmarshal(data, &got)).To(Succeed())
		Expect(got.Links["race"]).To(Equal([]string{"r1", "r2"}))
		Expect(got.Links["npc"]).To(Equal([]string{"n1"}))
		Expect(got.Links["calendar"]).To(BeEmpty())

		status, data = builder.do("PUT", "/api/playground/nodes/"+world.ID+"/links", map[string]any{
			"links": map[string]any{"race": []any{"r1"}},
		})
		Expect(status).To(Equal(http.StatusUnprocessableEntity))
		Expect(errorCode(data)).To(Equal("NOT_A_SETTING_NODE"))

		status, _ = builder.do("DELETE", "/api/playground/nodes/"+world.ID, nil)
		Expect(status).To(Equal(http.StatusNoContent))

		var links int
		Expect(env.pool.QueryRow(ctx,
			`SELECT count(*) FROM toolbox_links WHERE node_id = $1`, setting.ID).Scan(&links)).To(Succeed())
		Expect(links).To(BeZero())
		Expect(builder.tree().Nodes).To(HaveLen(1))
	})

	It("moves a node but not under its own descendant", func() {
		cosmos := builder.createNode(nil, "cosmos", "Prime")
		world := builder.createNode(&cosmos.ID, "world", "Aerth")
		era := builder.createNode(&world.ID, "era", "Age")
		setting := builder.createNode(&era.ID, "setting", "Town")
		outer := builder.createNode(&setting.ID, "folder", "Outer")
		inner := builder.createNode(&outer.ID, "folder", "Inner")

		status, data := builder.do("POST", "/api/playground/nodes/"+outer.ID+"/move", map[string]any{"parentId": inner.ID})
		Expect(status).To(Equal(http.StatusUnprocessableEntity))
		Expect(errorCode(data)).To(Equal("INVALID_PARENT_CHILD_RELATIONSHIP"))

		status, _ = builder.do("POST", "/api/playground/nodes/"+inner.ID+"/move", map[string]any{"parentId": setting.ID})
		Expect(status).To(Equal(http.StatusOK))
	})

	It("imports a YAML document through the placement rules", func(ctx context.Context) {
		doc, err := importer.Parse([]byte(`
nodes:
  - type: cosmos
    name: Imported
    children:
      - type: world
        name: Wyrd
        children:
          - type: era
            name: Dawn
            children:
              - type: setting
                name: Keep
                links:
                  race: [elf]
`))
		Expect(err).NotTo(HaveOccurred())

		status, data := builder.do("GET", "/api/auth/me", nil)
		Expect(status).To(Equal(http.StatusOK))
		var me struct {
			User struct {
				Role string `json:"role"`
			} `json:"user"`
		}
		Expect(json.Unmarshal(data, &me)).To(Succeed())
		Expect(me.User.Role).To(Equal("world_builder"))

		sess, _, err := env.auth.Login(ctx, builder.username, "correct horse battery")
		Expect(err).NotTo(HaveOccurred())
		su, err := env.auth.SessionUser(ctx, sess.ID)
		Expect(err).NotTo(HaveOccurred())

		res, err := importer.Import(ctx, env.tree, accessScope(su), nil, doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Created).To(Equal(4))

		tree := builder.tree()
		Expect(tree.Nodes).To(HaveLen(4))
		found := false
		for _, links := range tree.LinksByNode {
			if len(links["race"]) == 1 && links["race"][0] == "elf" {
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})
})
