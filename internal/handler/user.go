// Package handler contains the HTTP layer: it decodes request bodies into
// typed structs, delegates to the store, and translates domain errors into
// status codes. No business rule lives here — presence and type checks come
// for free from the typed decode, everything else is the store's job.
//
// TYPED REQUEST STRUCTS:
// Request bodies decode into per-operation structs with POINTER fields, so
// "field missing" (nil) is distinguishable from "field empty". A field of
// the wrong JSON type fails the decode itself, which surfaces as a 400
// before any handler logic runs.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/girishsaivarma/WebForm/internal/apperror"
	"github.com/girishsaivarma/WebForm/internal/model"
	"github.com/girishsaivarma/WebForm/internal/store"
)

// UserHandler serves the /register and /user endpoints.
type UserHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler backed by the given store.
func NewUserHandler(store *store.Store, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

type registerRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
}

type registerResponse struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

// HandleRegister creates a new user.
//
// HTTP: POST /register
// BODY: {"name": "Ann", "username": "ann1"}
//
// The response is the only place the user's secret key ever appears:
//
//	{"id": 1, "key": "3q2-7wAAAQIDBAUGBwgJCg"}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON format"))
		return
	}
	if req.Name == nil {
		writeError(w, apperror.ValidationFailed("name", "name is required and must be a string"))
		return
	}
	if req.Username == nil {
		writeError(w, apperror.ValidationFailed("username", "username is required and must be a string"))
		return
	}

	id, key, err := h.store.RegisterUser(*req.Name, *req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{ID: id, Key: key})
}

// HandleGet returns a user's public view.
//
// HTTP: GET /user/{identifier}
//
// The identifier is either a numeric id or a username — the store decides
// which lookup applies. The response never includes the key.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	view, err := h.store.GetUser(identifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type updateUserRequest struct {
	Key      *string `json:"key"`
	Name     *string `json:"name"`
	Username *string `json:"username"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// HandleUpdate modifies a user's name and/or username.
//
// HTTP: PUT /user/{id}
// BODY: {"key": "<user key>", "name": "New Name", "username": "newname"}
//
// A missing key is treated the same as a wrong key (401). Fields other than
// name and username are ignored by the decode — the client cannot smuggle in
// an id or key change.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		// The route pattern only admits digits, so this is unreachable in
		// practice; kept for direct handler invocation in tests.
		writeError(w, apperror.ValidationFailed("id", "user id must be numeric"))
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid update JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON format"))
		return
	}
	if req.Key == nil {
		writeError(w, apperror.Unauthorized("unauthorized access"))
		return
	}

	patch := model.UserPatch{Name: req.Name, Username: req.Username}
	if err := h.store.UpdateUser(id, *req.Key, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User information updated successfully."})
}
