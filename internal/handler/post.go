package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/girishsaivarma/WebForm/internal/apperror"
	"github.com/girishsaivarma/WebForm/internal/store"
)

// openEndedRangeEnd substitutes for a missing ?end= parameter: it sorts
// after every timestamp the store can produce, making the range open above.
// A missing ?start= needs no substitute — the empty string already sorts
// before everything.
const openEndedRangeEnd = "9999-12-31T23:59:59.999999Z"

// PostHandler serves the /post and /posts endpoints.
type PostHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler backed by the given store.
func NewPostHandler(store *store.Store, logger *slog.Logger) *PostHandler {
	return &PostHandler{store: store, logger: logger}
}

type createPostRequest struct {
	Msg     *string `json:"msg"`
	File    *string `json:"file"`
	UserID  *int    `json:"user_id"`
	UserKey *string `json:"user_key"`
}

// HandleCreate stores a new post.
//
// HTTP: POST /post
// BODY: {"msg": "hi", "file": "<opaque blob>", "user_id": 1, "user_key": "..."}
//
// Only msg is required. The response is the full stored record INCLUDING the
// post's secret key — the one time the key is ever shown. Attribution
// requires both user_id and user_key; supplying just one is silently
// ignored, supplying both with a bad key is a 401.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON format"))
		return
	}
	if req.Msg == nil {
		writeError(w, apperror.ValidationFailed("msg", "invalid post message"))
		return
	}

	post, err := h.store.CreatePost(store.PostInput{
		Msg:     *req.Msg,
		File:    req.File,
		UserID:  req.UserID,
		UserKey: req.UserKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleGet returns a post minus its key.
//
// HTTP: GET /post/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "post id must be numeric"))
		return
	}

	post, err := h.store.GetPost(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post, authorized by the key in the path.
//
// HTTP: DELETE /post/{id}/delete/{key}
//
// Returns 403 for a wrong key AND for an unknown id — the two cases are
// deliberately indistinguishable (see store.DeletePost).
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.Forbidden("invalid post id or key"))
		return
	}
	key := chi.URLParam(r, "key")

	post, err := h.store.DeletePost(id, key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleRange returns all posts whose timestamp falls within [start, end].
//
// HTTP: GET /posts?start=2026-03-01T00:00:00.000000Z&end=2026-03-02T00:00:00.000000Z
//
// Both bounds are inclusive; either may be omitted for an open-ended range.
func (h *PostHandler) HandleRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if end == "" {
		end = openEndedRangeEnd
	}

	writeJSON(w, http.StatusOK, h.store.QueryByDateRange(start, end))
}

// HandleByUsername returns all posts attributed to the given username
// snapshot.
//
// HTTP: GET /posts/user/{username}
func (h *PostHandler) HandleByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	writeJSON(w, http.StatusOK, h.store.QueryByUsername(username))
}

// HandleSearch returns all posts whose msg matches the query, interpreted as
// a case-insensitive regular expression.
//
// HTTP: GET /posts/search?query=hello
func (h *PostHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	posts, err := h.store.SearchFulltext(query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
