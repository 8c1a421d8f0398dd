package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrEthical07/userauth"
	"github.com/MrEthical07/userauth/middleware"
	"github.com/MrEthical07/userauth/user"
	"github.com/gorilla/mux"
)

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

type profileBody struct {
	Name            string  `json:"name"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
	Image           *string `json:"image"`
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeErrorMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	writeErrorMessage(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.cfg.ServiceName,
	})
}

// register handles POST /register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if !s.decode(w, r, &body) {
		return
	}
	if body.Email == "" || body.Password == "" || body.Name == "" {
		writeErrorMessage(w, http.StatusBadRequest, "Email, password, and name are required")
		return
	}

	sess, err := s.svc.Register(r.Context(), userauth.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Role:     body.Role,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookies(w, sess)
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully", User: sess.User})
}

// login handles POST /login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !s.decode(w, r, &body) {
		return
	}
	if body.Email == "" || body.Password == "" {
		writeErrorMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	sess, err := s.svc.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookies(w, sess)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Login successful", User: sess.User})
}

// refresh handles POST /refresh. The cookie wins over a JSON body token.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var body refreshBody
		if !s.decode(w, r, &body) {
			return
		}
		token = body.RefreshToken
	}
	if token == "" {
		writeErrorMessage(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	sess, err := s.svc.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, userauth.ErrUserNotFound) {
			writeErrorMessage(w, http.StatusUnauthorized, "User not found")
			return
		}
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookies(w, sess)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Tokens refreshed successfully", User: sess.User})
}

// logout handles POST /logout. Tokens stay valid until expiry; logout only
// removes them from the browser.
func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	s.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// me handles GET /me
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	view, err := s.svc.GetByID(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]user.View{"user": view})
}

// doctors handles GET /doctors
func (s *Server) doctors(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ListDoctors(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]user.View{"doctors": views})
}

// updateProfile handles PATCH /profile
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var body profileBody
	if !s.decode(w, r, &body) {
		return
	}

	view, err := s.svc.UpdateProfile(r.Context(), id.UserID, userauth.ProfileUpdate{
		Name:            body.Name,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
		Image:           body.Image,
	})
	if err != nil {
		if errors.Is(err, userauth.ErrInvalidCredentials) {
			writeErrorMessage(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Profile updated successfully", User: view})
}

// adminGetUser handles GET /admin/users/{id}
func (s *Server) adminGetUser(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]user.View{"user": view})
}
