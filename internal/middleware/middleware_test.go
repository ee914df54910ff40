// internal/middleware/middleware_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/models"
)

func TestNegotiateLanguage(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"zh-TW,zh;q=0.9,en;q=0.8", "zh_TW"},
		{"fr-FR, en-GB;q=0.7", "en"},
		{"zh_TW", "zh_TW"},
		{"de", "en"},
		{"", "en"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, negotiateLanguage(tc.header, "en"), tc.header)
	}
	assert.Equal(t, "zh_TW", negotiateLanguage("ja", "zh_TW"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 2)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")

	assert.Zero(t, rl.evict(time.Now()))
	assert.Equal(t, 2, rl.evict(time.Now().Add(time.Hour)))
}

func TestAuditLogMiddleware(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	accountID := uuid.New()
	productID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", accountID.String())
		c.Next()
	})
	r.Use(AuditLogMiddleware(db))
	r.PUT("/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/v1/products/"+productID.String(), nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPut, "/v1/products/"+productID.String(), strings.NewReader(`{"title":"Renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry models.AuditLog
	assert.Eventually(t, func() bool {
		return db.First(&entry).Error == nil
	}, 2*time.Second, 20*time.Millisecond)

	var count int64
	db.Model(&models.AuditLog{}).Count(&count)
	assert.EqualValues(t, 1, count, "reads are not audited")
	assert.Equal(t, "PUT /v1/products/:id", entry.Action)
	assert.Equal(t, "products", entry.ResourceType)
	assert.Equal(t, http.StatusOK, entry.StatusCode)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, productID, *entry.ResourceID)
	require.NotNil(t, entry.AccountID)
	assert.Equal(t, accountID, *entry.AccountID)
	assert.Equal(t, "Renamed", entry.NewValues["title"])
}

func TestExtractResource(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, "wizards", extractResourceType("/v1/wizards/"+id+"/next"))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, "unknown", extractResourceType("/"))
	assert.Equal(t, id, extractResourceID("/v1/wizards/"+id+"/next"))
	assert.Empty(t, extractResourceID("/v1/wizards/flavors"))
}

func TestMetricsCountsMatchedRoutes(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/v1/things/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/v1/things/:id", "GET", "202"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/things/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("/v1/things/:id", "GET", "202")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "404")), 1.0)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.partnerlink.test"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.partnerlink.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.partnerlink.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
