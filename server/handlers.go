package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pwshare/pkg/logger"
	"pwshare/pkg/shares"
)

// returnToKey carries the path a visitor wanted before being sent to login.
// It lives in the scope map outside the auth/ namespace, so logout does not
// clear it and it can never be mistaken for a session binding.
const returnToKey = "return_to"

// handleServe gates access to shared files. Unauthenticated visitors are
// redirected to the login page for the share they asked for.
func (s *Server) handleServe(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	folder := strings.SplitN(path, "/", 2)[0]
	ip := clientIP(c)

	scope := s.scopeFrom(c)
	if !s.engine.Validate(scope, folder, ip) {
		scope[returnToKey] = path
		s.saveScope(c, scope)
		c.Redirect(http.StatusFound, "/l/"+shares.SafeName(folder))
		return
	}

	realpath := filepath.Join(s.cfg.StaticDir, filepath.Clean("/"+path))
	if info, err := os.Stat(realpath); err == nil && info.IsDir() {
		if !strings.HasSuffix(path, "/") && path != "" {
			c.Redirect(http.StatusFound, "/s/"+path+"/")
			return
		}
		realpath = filepath.Join(realpath, "index.html")
	}

	if _, err := os.Stat(realpath); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.File(realpath)
}

// handleLoginPage renders the login form and the caller's active sessions
func (s *Server) handleLoginPage(c *gin.Context) {
	scope := s.scopeFrom(c)
	c.HTML(http.StatusOK, "login", gin.H{
		"Folder":   shares.SafeName(c.Param("folder")),
		"Sessions": s.engine.ActiveSessions(scope, clientIP(c)),
	})
}

// handleLogin authenticates a password against a share and redirects back to
// the originally requested path on success.
func (s *Server) handleLogin(c *gin.Context) {
	ip := clientIP(c)
	folder := shares.SafeName(c.PostForm("folder"))
	scope := s.scopeFrom(c)

	cfg, _ := s.shares.Read(folder)
	success := s.engine.Authenticate(scope, cfg, c.PostForm("password"), ip)
	if success {
		logger.Get().Info("successful login", "folder", folder, "ip", ip)
	} else {
		logger.Get().Warn("failed login", "folder", folder, "ip", ip)
	}

	returnTo := scope[returnToKey]
	delete(scope, returnToKey)
	s.saveScope(c, scope)

	if success && returnTo != "" {
		c.Redirect(http.StatusFound, "/s/"+returnTo)
		return
	}

	c.HTML(http.StatusOK, "login", gin.H{
		"Folder":   folder,
		"Failed":   !success,
		"Sessions": s.engine.ActiveSessions(scope, ip),
	})
}

// handleLogout drops every session binding from the client's scope
func (s *Server) handleLogout(c *gin.Context) {
	scope := s.scopeFrom(c)
	s.engine.Logout(scope)
	s.saveScope(c, scope)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index", gin.H{})
}
