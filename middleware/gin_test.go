package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/tokenauth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGinRouter(a *tokenauth.Authority, required bool) *gin.Engine {
	r := gin.New()
	r.GET("/me", Gin(a, required), func(c *gin.Context) {
		p, ok := GinPayload(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		fromCtx, _ := tokenauth.PayloadFromContext(c.Request.Context())
		c.String(http.StatusOK, p.String("uid")+"/"+fromCtx.String("uid"))
	})
	return r
}

func ginServe(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGinRequired(t *testing.T) {
	a := newAuthority(t, tokenauth.Config{})
	r := newGinRouter(a, true)

	rec := ginServe(r, issue(t, a, tokenauth.SignOptions{}))
	if rec.Code != http.StatusOK || rec.Body.String() != "u1/u1" {
		t.Fatalf("expected 200 u1/u1, got %d %q", rec.Code, rec.Body.String())
	}

	if rec := ginServe(r, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGinOptional(t *testing.T) {
	a := newAuthority(t, tokenauth.Config{})
	r := newGinRouter(a, false)

	rec := ginServe(r, "Basic abc")
	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("expected anonymous 200, got %d %q", rec.Code, rec.Body.String())
	}
}
