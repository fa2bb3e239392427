package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barcatalog-backend/internal/domains/snapshot"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	dto *snapshot.LatestSnapshotDTO
	err error
}

func (s *stubService) Latest(ctx context.Context) (*snapshot.LatestSnapshotDTO, error) {
	return s.dto, s.err
}

func performLatest(t *testing.T, svc snapshot.Service) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/api/v1/snapshots/latest", NewSnapshotHandler(svc).GetLatest)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/latest", nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetLatestSuccess(t *testing.T) {
	dto := &snapshot.LatestSnapshotDTO{
		SchemaVersion:   "v1",
		SnapshotVersion: "20240601.000000",
		SizeBytes:       2048,
		SHA256:          "beef",
		SignedURL:       "https://storage.example/snapshots/x?signed=1",
		CreatedAtUTC:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	rec := performLatest(t, &stubService{dto: dto})
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                       `json:"success"`
		Data    snapshot.LatestSnapshotDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "20240601.000000", body.Data.SnapshotVersion)
	assert.Equal(t, "beef", body.Data.SHA256)
}

func TestGetLatestEmptyLogIs503NotError(t *testing.T) {
	rec := performLatest(t, &stubService{err: snapshot.ErrNoSnapshot})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NO_SNAPSHOT", body.Error.Code)
}

func TestGetLatestInternalFailuresAreGeneric(t *testing.T) {
	rec := performLatest(t, &stubService{err: errors.New("signing key missing")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "signing key")
}
