package httpapi

import (
	"net/http"
	"time"

	"github.com/MrEthical07/userauth"
	"github.com/MrEthical07/userauth/middleware"
)

// RefreshCookie carries the refresh token.
const RefreshCookie = "refreshToken"

func (s *Server) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := s.cfg.Cookie
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.Path,
		Domain:   c.Domain,
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

func (s *Server) setSessionCookies(w http.ResponseWriter, sess *userauth.Session) {
	http.SetCookie(w, s.cookie(middleware.AccessCookie, sess.AccessToken, s.cfg.Cookie.AccessMaxAge))
	http.SetCookie(w, s.cookie(RefreshCookie, sess.RefreshToken, s.cfg.Cookie.RefreshMaxAge))
}

// clearSessionCookies expires both cookies with the same attributes they were
// set with; browsers ignore a clear whose Path or Domain differs.
func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	access := s.cookie(middleware.AccessCookie, "", 0)
	access.MaxAge = -1
	access.Expires = time.Unix(0, 0)
	refresh := s.cookie(RefreshCookie, "", 0)
	refresh.MaxAge = -1
	refresh.Expires = time.Unix(0, 0)

	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}
