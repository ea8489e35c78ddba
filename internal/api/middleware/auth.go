package middleware

import (
	"net"
	"net/http"

	"github.com/bhandras/agbridge/internal/metrics"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

// TokenHeader carries the bearer token issued by pairing.
const TokenHeader = "x-ag-token"

// LoopbackKey is set on the gin context when a request was admitted through
// the loopback bypass.
const LoopbackKey = "loopback"

// Authenticator validates bearer tokens.
type Authenticator interface {
	Authenticate(token string) bool
}

// AuthMiddleware admits requests from the loopback interface, or carrying a
// token the authenticator recognizes. The peer address is taken from the TCP
// connection; forwarding headers are never consulted.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsLoopback(c.Request) {
			c.Set(LoopbackKey, true)
			c.Next()
			return
		}

		if !auth.Authenticate(c.GetHeader(TokenHeader)) {
			metrics.AuthFailures.WithLabelValues("http").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Unauthorized"})
			return
		}

		c.Next()
	}
}

// IsLoopback reports whether the request's TCP peer is on this machine.
func IsLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
