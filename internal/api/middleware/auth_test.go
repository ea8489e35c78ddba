package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type staticAuth map[string]bool

func (a staticAuth) Authenticate(token string) bool { return a[token] }

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware(), AuthMiddleware(staticAuth{"good": true}))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"loopback": c.GetBool(LoopbackKey)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter()

	cases := []struct {
		name       string
		remoteAddr string
		token      string
		wantCode   int
		wantBody   string
	}{
		{"loopback v4", "127.0.0.1:4000", "", http.StatusOK, `{"loopback":true}`},
		{"loopback v6", "[::1]:4000", "", http.StatusOK, `{"loopback":true}`},
		{"lan with token", "192.168.1.5:4000", "good", http.StatusOK, `{"loopback":false}`},
		{"lan without token", "192.168.1.5:4000", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"lan with bad token", "192.168.1.5:4000", "bad", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.token != "" {
				req.Header.Set(TokenHeader, tc.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tc.wantCode, rec.Code)
			require.JSONEq(t, tc.wantBody, rec.Body.String())
		})
	}
}
