package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemservice/internal/batch"
	"itemservice/internal/models"
	"itemservice/internal/storage"
)

type fakeBatches struct {
	result *batch.Result
	err    error
}

func (f *fakeBatches) ProcessBatch(context.Context) (*batch.Result, error) {
	return f.result, f.err
}

func newTestRouter(t *testing.T, batches BatchProcessor, seed ...models.Item) (*gin.Engine, *storage.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore(seed...)
	if batches == nil {
		batches = &fakeBatches{}
	}
	return NewRouter(store, batches, zerolog.Nop()), store
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestItems_List(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := do(router, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	router, _ = newTestRouter(t, nil,
		models.Item{ID: 2, Name: "b", Email: "b@x.com"},
		models.Item{ID: 1, Name: "a", Email: "a@x.com"},
	)
	w = do(router, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
}

func TestItems_Get(t *testing.T) {
	cases := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "found", path: "/api/items/1", wantStatus: http.StatusOK},
		{name: "not found", path: "/api/items/99", wantStatus: http.StatusNotFound},
		{name: "bad id", path: "/api/items/abc", wantStatus: http.StatusBadRequest},
	}
	router, _ := newTestRouter(t, nil, models.Item{ID: 1, Name: "a", Status: "NEW"})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tc.path, "")
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestItems_Create(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
		wantPlain   bool
	}{
		{
			name:       "valid",
			body:       `{"id":42,"name":"Item1","description":"d","status":"NEW","email":"user@domain.com"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:        "bad email",
			body:        `{"name":"Item1","email":"not-an-email"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed: email must be a valid email address",
			wantPlain:   true,
		},
		{
			name:        "name too long and bad email",
			body:        fmt.Sprintf(`{"name":%q,"email":"nope"}`, strings.Repeat("x", 256)),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed: email must be a valid email address, name the length must be no more than 255",
			wantPlain:   true,
		},
		{
			name:        "malformed json",
			body:        `{"name":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request body",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, store := newTestRouter(t, nil)
			w := do(router, http.MethodPost, "/api/items", tc.body)
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())

			if tc.wantMessage != "" {
				if tc.wantPlain {
					assert.Equal(t, tc.wantMessage, w.Body.String())
					assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
				} else {
					assert.Equal(t, tc.wantMessage, decodeError(t, w).Message)
				}
				ids, err := store.ListIDs(context.Background())
				require.NoError(t, err)
				assert.Empty(t, ids)
				return
			}
			var item models.Item
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
			assert.Equal(t, int64(1), item.ID, "ids are assigned by the store")
			assert.Equal(t, "Item1", item.Name)
		})
	}
}

func TestItems_Update(t *testing.T) {
	router, store := newTestRouter(t, nil, models.Item{ID: 1, Name: "old", Status: "NEW"})

	w := do(router, http.MethodPut, "/api/items/1", `{"id":7,"name":"new","status":"NEW","email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var item models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, int64(1), item.ID, "path id wins")
	assert.Equal(t, "new", item.Name)

	_, err := store.Get(context.Background(), 7)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	w = do(router, http.MethodPut, "/api/items/99", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// updates are stored as sent, without field validation
	w = do(router, http.MethodPut, "/api/items/1", `{"email":"bad"}`)
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "bad", stored.Email)

	w = do(router, http.MethodPut, "/api/items/1", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItems_Delete(t *testing.T) {
	router, store := newTestRouter(t, nil, models.Item{ID: 1, Name: "a"})

	w := do(router, http.MethodDelete, "/api/items/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err := store.Get(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// deleting again is still a success
	w = do(router, http.MethodDelete, "/api/items/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProcess_Handle(t *testing.T) {
	result := &batch.Result{
		BatchID:     "b-1",
		StartedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC),
		Outcomes: []batch.Outcome{
			batch.Processed(models.Item{ID: 1, Status: models.StatusProcessed}),
			batch.Skipped(2, batch.ReasonNotFound),
		},
	}

	cases := []struct {
		name       string
		batches    *fakeBatches
		wantStatus int
	}{
		{name: "accepted", batches: &fakeBatches{result: result}, wantStatus: http.StatusAccepted},
		{
			name:       "infrastructure failure",
			batches:    &fakeBatches{err: fmt.Errorf("%w: list item ids: db down", batch.ErrBatchInfrastructure)},
			wantStatus: http.StatusServiceUnavailable,
		},
		{name: "unexpected failure", batches: &fakeBatches{err: errors.New("boom")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tc.batches)
			w := do(router, http.MethodGet, "/api/items/process", "")
			require.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus != http.StatusAccepted {
				return
			}

			var body struct {
				BatchID  string        `json:"batch_id"`
				Outcomes []batch.Entry `json:"outcomes"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "b-1", body.BatchID)
			require.Len(t, body.Outcomes, 2)
			assert.Equal(t, batch.StatusProcessed, body.Outcomes[0].Status)
			assert.Equal(t, batch.ReasonNotFound, body.Outcomes[1].Reason)
		})
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ready", "").Code)
}
