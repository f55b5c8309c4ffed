// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/storytable/storytable/internal/auth"
	"github.com/storytable/storytable/internal/playground"
	"github.com/storytable/storytable/pkg/errutil"
)

// maxBodyBytes leaves room for a full-size page document plus JSON overhead.
const maxBodyBytes = 2 << 20

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func errorBody(code, message string) errorResponse {
	return errorResponse{Error: errorPayload{Code: code, Message: message}}
}

// publicError is how a domain error code is presented to clients. An empty
// message means the domain message is safe to show.
type publicError struct {
	status  int
	code    string
	message string
}

var publicErrors = map[string]publicError{
	playground.CodeInvalidInput:        {http.StatusBadRequest, "BAD_REQUEST", ""},
	playground.CodeParentNotFound:      {http.StatusNotFound, "PARENT_NOT_FOUND", "parent node not found"},
	playground.CodeNodeNotFound:        {http.StatusNotFound, "NOT_FOUND", "node not found"},
	playground.CodeInvalidRelationship: {http.StatusUnprocessableEntity, "INVALID_PARENT_CHILD_RELATIONSHIP", ""},
	playground.CodeNotASettingNode:     {http.StatusUnprocessableEntity, "NOT_A_SETTING_NODE", "toolbox links require a setting node"},
	auth.CodeInvalidCredentials:        {http.StatusUnauthorized, "UNAUTHORIZED", "invalid username or password"},
	auth.CodeInvalidUsername:           {http.StatusBadRequest, "BAD_REQUEST", ""},
	auth.CodeInvalidEmail:              {http.StatusBadRequest, "BAD_REQUEST", ""},
	auth.CodeInvalidPassword:           {http.StatusBadRequest, "BAD_REQUEST", ""},
	auth.CodeUsernameTaken:             {http.StatusConflict, "CONFLICT", "username is already taken"},
	auth.CodeEmailTaken:                {http.StatusConflict, "CONFLICT", "email is already registered"},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson // client may have gone away
	json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if pe, ok := publicErrors[errutil.Code(err)]; ok {
		msg := pe.message
		if msg == "" {
			msg = domainMessage(err)
		}
		writeJSON(w, pe.status, errorBody(pe.code, msg))
		return
	}
	logger := s.logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	errutil.LogError(logger, "request failed", err)
	writeJSON(w, http.StatusInternalServerError, errorBody("INTERNAL_ERROR", "internal server error"))
}

// domainMessage is the message of the innermost coded error, without the
// wrapping context chain.
func domainMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody("BAD_REQUEST", message))
}

// decodeJSON reads a single JSON value from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("BAD_REQUEST", "request body too large"))
		case errors.Is(err, io.EOF):
			badRequest(w, "request body is required")
		default:
			badRequest(w, "malformed JSON body")
		}
		return false
	}
	if dec.More() {
		badRequest(w, "unexpected data after JSON body")
		return false
	}
	return true
}
