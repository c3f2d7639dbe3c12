package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nina-protocol/nina-indexer-sub000/internal/database"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	return Setup(db, nil), db
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nina-indexer")
}

func TestGetReleases_ReturnsPaginatedList(t *testing.T) {
	r, db := newTestRouter(t)

	accounts := logic.NewAccountLogic(db)
	releases := logic.NewReleaseLogic(db)
	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	_, err = releases.Create(&model.Release{
		PublicKey:       "release-1",
		Mint:            "mint-1",
		ReleaseDatetime: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		AuthorityID:     acct.ID,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/releases?page=1&page_size=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Releases   []model.Release `json:"releases"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Releases, 1)
	assert.Equal(t, "release-1", body.Releases[0].PublicKey)
	assert.Equal(t, int64(1), body.Pagination.Total)
}

func TestGetReleases_ClampsBadPagination(t *testing.T) {
	r, db := newTestRouter(t)

	accounts := logic.NewAccountLogic(db)
	releases := logic.NewReleaseLogic(db)
	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	_, err = releases.Create(&model.Release{
		PublicKey:   "release-1",
		Mint:        "mint-1",
		AuthorityID: acct.ID,
	})
	require.NoError(t, err)

	// page=0 and page_size=0 must not produce a negative offset or an
	// empty page; both clamp to their defaults.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/releases?page=0&page_size=0", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Releases   []model.Release `json:"releases"`
		Pagination struct {
			Page     int `json:"page"`
			PageSize int `json:"page_size"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Releases, 1)
	assert.Equal(t, 1, body.Pagination.Page)
	assert.Equal(t, 20, body.Pagination.PageSize)
}

func TestGetRelease_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/releases/unknown-key", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "release not found")
}

func TestGetHub_ByHandle(t *testing.T) {
	r, db := newTestRouter(t)

	accounts := logic.NewAccountLogic(db)
	hubs := logic.NewHubLogic(db)
	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	_, err = hubs.Create(&model.Hub{
		PublicKey: "hub-key", Handle: "my-hub", AuthorityID: acct.ID,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/hubs/my-hub", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hub-key")
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/releases", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
