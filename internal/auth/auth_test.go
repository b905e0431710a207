package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func request(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer   abc123  ", "abc123"},
		{"Basic abc123", ""},
		{"abc123", ""},
		{"", ""},
	}
	for _, tc := range cases {
		c := request(map[string]string{"Authorization": tc.header})
		if got := BearerToken(c); got != tc.want {
			t.Fatalf("BearerToken(%q)=%q want %q", tc.header, got, tc.want)
		}
	}
}

func TestCronAuth(t *testing.T) {
	run := func(secret string, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
		gin.SetMode(gin.TestMode)
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/cron/auto-settle", nil)
		for k, v := range headers {
			c.Request.Header.Set(k, v)
		}
		CronAuth(secret)(c)
		return c, rec
	}

	if c, rec := run("", nil); !c.IsAborted() || rec.Code != http.StatusNotFound {
		t.Fatalf("empty secret: aborted=%v code=%d", c.IsAborted(), rec.Code)
	}
	if c, rec := run("s3cret", map[string]string{"Authorization": "Bearer wrong"}); !c.IsAborted() || rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: aborted=%v code=%d", c.IsAborted(), rec.Code)
	}
	if c, _ := run("s3cret", map[string]string{"Authorization": "Bearer s3cret"}); c.IsAborted() {
		t.Fatalf("bearer secret should pass")
	}
	if c, _ := run("s3cret", map[string]string{"X-Cron-Secret": "s3cret"}); c.IsAborted() {
		t.Fatalf("header secret should pass")
	}
}
