// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/storytable/storytable/internal/playground"
)

type nodeResponse struct {
	Node nodeJSON `json:"node"`
}

type linksBody struct {
	Links map[string]any `json:"links"`
}

type linksResponse struct {
	Links linksJSON `json:"links"`
}

type createNodeRequest struct {
	ParentID *string `json:"parentId"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
}

type updateNodeRequest struct {
	Name      *string        `json:"name"`
	Summary   *string        `json:"summary"`
	Tags      *[]string      `json:"tags"`
	Markdown  *string        `json:"markdown"`
	Metadata  map[string]any `json:"metadata"`
	Published *bool          `json:"published"`
}

type moveNodeRequest struct {
	ParentID *string `json:"parentId"`
}

type reorderNodeRequest struct {
	SortOrder *int `json:"sortOrder"`
}

// nodeID reads the {id} path parameter. Malformed ids are reported as not
// found, like ids the requester cannot see.
func (s *Server) nodeID(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, err := ulid.ParseStrict(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("NOT_FOUND", "node not found"))
		return ulid.ULID{}, false
	}
	return id, true
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.tree.GetTree(r.Context(), scopeFor(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTreeResponse(tree))
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	parentID, ok := parseOptionalID(req.ParentID)
	if !ok {
		badRequest(w, "parentId is not a valid id")
		return
	}
	node, err := s.tree.CreateNode(r.Context(), scopeFor(r.Context()), playground.CreateNodeInput{
		ParentID: parentID,
		Type:     req.Type,
		Name:     req.Name,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordNodeCreated(string(node.Type))
	writeJSON(w, http.StatusCreated, nodeResponse{Node: toNodeJSON(node)})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	node, err := s.tree.GetNode(r.Context(), scopeFor(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeResponse{Node: toNodeJSON(node)})
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	var req updateNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	node, err := s.tree.UpdateNode(r.Context(), scopeFor(r.Context()), id, playground.UpdateNodeInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeResponse{Node: toNodeJSON(node)})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	if err := s.tree.DeleteNode(r.Context(), scopeFor(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	var req moveNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	parentID, ok := parseOptionalID(req.ParentID)
	if !ok {
		badRequest(w, "parentId is not a valid id")
		return
	}
	node, err := s.tree.MoveNode(r.Context(), scopeFor(r.Context()), id, parentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeResponse{Node: toNodeJSON(node)})
}

func (s *Server) handleReorderNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	var req reorderNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SortOrder == nil {
		badRequest(w, "sortOrder is required")
		return
	}
	node, err := s.tree.ReorderNode(r.Context(), scopeFor(r.Context()), id, *req.SortOrder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeResponse{Node: toNodeJSON(node)})
}

func (s *Server) handleGetLinks(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	links, err := s.tree.GetLinks(r.Context(), scopeFor(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksResponse{Links: toLinksJSON(links)})
}

func (s *Server) handleSetLinks(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	var req linksBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Links == nil {
		badRequest(w, "links must be an object")
		return
	}
	links, err := s.tree.SetLinks(r.Context(), scopeFor(r.Context()), id, req.Links)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksResponse{Links: toLinksJSON(links)})
}
