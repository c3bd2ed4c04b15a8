package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/girishsaivarma/WebForm/internal/handler"
	"github.com/girishsaivarma/WebForm/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// withURLParams injects chi route parameters into a request so a handler can
// be invoked directly, without mounting a router.
func withURLParams(r *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestUserHandler_HandleRegister(t *testing.T) {
	logger := testLogger()

	t.Run("valid registration", func(t *testing.T) {
		h := handler.NewUserHandler(store.New(logger), logger)

		req := httptest.NewRequest(http.MethodPost, "/register",
			bytes.NewBufferString(`{"name":"Ann","username":"ann1"}`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			ID  int    `json:"id"`
			Key string `json:"key"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, 1, res.ID)
		assert.NotEmpty(t, res.Key)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		h := handler.NewUserHandler(store.New(logger), logger)

		req := httptest.NewRequest(http.MethodPost, "/register",
			bytes.NewBufferString(`{"name":`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("name of wrong JSON type", func(t *testing.T) {
		h := handler.NewUserHandler(store.New(logger), logger)

		// The typed decode rejects a numeric name before the store ever
		// sees the request.
		req := httptest.NewRequest(http.MethodPost, "/register",
			bytes.NewBufferString(`{"name":123,"username":"ann1"}`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing username", func(t *testing.T) {
		h := handler.NewUserHandler(store.New(logger), logger)

		req := httptest.NewRequest(http.MethodPost, "/register",
			bytes.NewBufferString(`{"name":"Ann"}`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "validation_error", res.Error)
	})

	t.Run("username taken maps to 400", func(t *testing.T) {
		st := store.New(logger)
		h := handler.NewUserHandler(st, logger)

		_, _, err := st.RegisterUser("Ann", "ann1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/register",
			bytes.NewBufferString(`{"name":"Impostor","username":"ann1"}`))
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "conflict", res.Error)
	})
}

func TestUserHandler_HandleUpdate(t *testing.T) {
	logger := testLogger()

	t.Run("missing key is 401", func(t *testing.T) {
		st := store.New(logger)
		h := handler.NewUserHandler(st, logger)
		_, _, err := st.RegisterUser("Ann", "ann1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/user/1",
			bytes.NewBufferString(`{"name":"Mallory"}`))
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, withURLParams(req, "id", "1"))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong key is 401 and record survives", func(t *testing.T) {
		st := store.New(logger)
		h := handler.NewUserHandler(st, logger)
		_, _, err := st.RegisterUser("Ann", "ann1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/user/1",
			bytes.NewBufferString(`{"key":"wrong","name":"Mallory"}`))
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, withURLParams(req, "id", "1"))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		view, err := st.GetUser("1")
		require.NoError(t, err)
		assert.Equal(t, "Ann", view.Name)
	})

	t.Run("valid update", func(t *testing.T) {
		st := store.New(logger)
		h := handler.NewUserHandler(st, logger)
		_, key, err := st.RegisterUser("Ann", "ann1")
		require.NoError(t, err)

		body, _ := json.Marshal(map[string]string{"key": key, "name": "Annabel"})
		req := httptest.NewRequest(http.MethodPut, "/user/1", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, withURLParams(req, "id", "1"))

		assert.Equal(t, http.StatusOK, rr.Code)

		view, err := st.GetUser("1")
		require.NoError(t, err)
		assert.Equal(t, "Annabel", view.Name)
		assert.Equal(t, "ann1", view.Username)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		h := handler.NewUserHandler(store.New(logger), logger)

		req := httptest.NewRequest(http.MethodPut, "/user/9",
			bytes.NewBufferString(`{"key":"any"}`))
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, withURLParams(req, "id", "9"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPostHandler_HandleCreate(t *testing.T) {
	logger := testLogger()

	t.Run("response includes the post key", func(t *testing.T) {
		h := handler.NewPostHandler(store.New(logger), logger)

		req := httptest.NewRequest(http.MethodPost, "/post",
			bytes.NewBufferString(`{"msg":"hi"}`))
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, float64(1), res["id"])
		assert.Equal(t, "hi", res["msg"])
		assert.NotEmpty(t, res["key"], "creation response must expose the key")
		assert.NotContains(t, res, "user_id")
	})

	t.Run("missing msg is 400", func(t *testing.T) {
		h := handler.NewPostHandler(store.New(logger), logger)

		req := httptest.NewRequest(http.MethodPost, "/post",
			bytes.NewBufferString(`{"file":"blob"}`))
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad credentials are 401", func(t *testing.T) {
		st := store.New(logger)
		h := handler.NewPostHandler(st, logger)
		_, _, err := st.RegisterUser("Ann", "ann1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/post",
			bytes.NewBufferString(`{"msg":"hi","user_id":1,"user_key":"wrong"}`))
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestPostHandler_HandleGet(t *testing.T) {
	logger := testLogger()
	st := store.New(logger)
	h := handler.NewPostHandler(st, logger)

	created, err := st.CreatePost(store.PostInput{Msg: "hi"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/post/1", nil)
	rr := httptest.NewRecorder()
	h.HandleGet(rr, withURLParams(req, "id", "1"))

	assert.Equal(t, http.StatusOK, rr.Code)

	var res map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, created.Msg, res["msg"])
	assert.NotContains(t, res, "key", "read view must not expose the key")
}

func TestPostHandler_HandleDelete(t *testing.T) {
	logger := testLogger()

	t.Run("wrong key is 403", func(t *testing.T) {
		st := store.New(logger)
		h := handler.NewPostHandler(st, logger)
		_, err := st.CreatePost(store.PostInput{Msg: "hi"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/post/1/delete/wrong", nil)
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, withURLParams(req, "id", "1", "key", "wrong"))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown id is the same 403", func(t *testing.T) {
		h := handler.NewPostHandler(store.New(logger), logger)

		req := httptest.NewRequest(http.MethodDelete, "/post/9/delete/any", nil)
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, withURLParams(req, "id", "9", "key", "any"))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("valid delete returns the record minus key", func(t *testing.T) {
		st := store.New(logger)
		h := handler.NewPostHandler(st, logger)
		created, err := st.CreatePost(store.PostInput{Msg: "hi"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/post/1/delete/"+created.Key, nil)
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, withURLParams(req, "id", "1", "key", created.Key))

		assert.Equal(t, http.StatusOK, rr.Code)

		var res map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "hi", res["msg"])
		assert.NotContains(t, res, "key")
	})
}

func TestPostHandler_HandleSearch(t *testing.T) {
	logger := testLogger()
	st := store.New(logger)
	h := handler.NewPostHandler(st, logger)

	_, err := st.CreatePost(store.PostInput{Msg: "say hello world"})
	require.NoError(t, err)

	t.Run("case-insensitive match", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/search?query=HELLO", nil)
		rr := httptest.NewRecorder()
		h.HandleSearch(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res []map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		require.Len(t, res, 1)
		assert.Equal(t, "say hello world", res[0]["msg"])
	})

	t.Run("invalid pattern is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/search?query=%28unclosed", nil)
		rr := httptest.NewRecorder()
		h.HandleSearch(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
