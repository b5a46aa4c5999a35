package chapter

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// unreachableDB opens a connection against a dead address. database/sql
// dials lazily, so construction succeeds and every query errors.
func unreachableDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, err := sql.Open("mysql", "bf:bf@tcp(127.0.0.1:1)/bookforge?timeout=100ms")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestReorderReportsWriteFailure(t *testing.T) {
	svc := NewService(unreachableDB(t))
	err := svc.Reorder(context.Background(), "ch-1", 3)
	assert.Error(t, err, "a lost write must not look like success")
}

func TestCreateUnderReportsReadFailure(t *testing.T) {
	svc := NewService(unreachableDB(t))
	ch, err := svc.CreateUnder(context.Background(), "book-1", "", "Drafts")
	assert.Error(t, err, "a failed order lookup must not silently assign order 0")
	assert.Nil(t, ch)
}

func TestReorderHandlerSurfacesWriteFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewHandler(NewService(unreachableDB(t)))
	noAuth := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(router.Group("/api/v1"), noAuth)

	body := strings.NewReader(`{"ids":["ch-1","ch-2"]}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/chapters/reorder", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":0`)
}
