package server

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pwshare/pkg/auth"
	"pwshare/pkg/logger"
)

const scopeCookie = "pwshare_scope"

// clientIP resolves the visitor's IP: first hop of X-Forwarded-For when the
// reverse proxy sets it, else the connection's remote address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// scopeFrom decodes the caller's signed scope cookie. A missing, malformed
// or tampered cookie yields an empty scope.
func (s *Server) scopeFrom(c *gin.Context) auth.Scope {
	encoded, err := c.Cookie(scopeCookie)
	if err != nil {
		return auth.NewScope()
	}
	return s.codec.Decode(encoded)
}

// saveScope re-signs the scope and writes it back to the client
func (s *Server) saveScope(c *gin.Context, scope auth.Scope) {
	encoded, err := s.codec.Encode(scope)
	if err != nil {
		logger.Get().ErrorWithErr("failed to encode scope", err)
		return
	}
	c.SetCookie(scopeCookie, encoded, 0, "/", "", false, true)
}

// rateLimit throttles login attempts per client IP
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c)
		if !s.limiter.AllowRequest(ip) {
			logger.Get().Warn("rate limit exceeded", "ip", ip)
			c.HTML(http.StatusTooManyRequests, "ratelimit", gin.H{})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLog logs each request with method, path, status and latency
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Get().Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", clientIP(c),
			"latency", time.Since(start),
		)
	}
}

func nowUnix() int64 {
	return time.Now().Unix()
}
