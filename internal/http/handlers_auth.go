package http

import (
	"context"
	"errors"
	"net/http"

	"saldo/internal/auth"
	"saldo/internal/log"
)

type signInPage struct {
	Email string
	Mode  string
	Error string
}

func (s *Server) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := s.auth.Verify(c.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	mode := "signin"
	if r.URL.Query().Get("mode") == "signup" {
		mode = "signup"
	}
	s.renderSignIn(w, r, http.StatusOK, signInPage{Mode: mode})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, "signin", s.auth.SignIn)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, "signup", s.auth.SignUp)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, mode string,
	do func(ctx context.Context, email, password string) (auth.Session, error)) {
	if err := r.ParseForm(); err != nil {
		s.renderSignIn(w, r, http.StatusBadRequest, signInPage{Mode: mode, Error: "Invalid request."})
		return
	}
	email := sanitizeInput(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")

	sess, err := do(r.Context(), email, password)
	if err != nil {
		status, msg := authErrorMessage(err)
		if status == http.StatusInternalServerError {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
				ErrorContext(r.Context(), "Authentication failed", log.FieldError, err)
		}
		s.renderSignIn(w, r, status, signInPage{Mode: mode, Email: email, Error: msg})
		return
	}

	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.SignOut(c.Value); err != nil {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Sign-out with invalid session", log.FieldError, err)
		}
	}
	s.clearSessionCookie(w)
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Redirect", "/signin").Write(w)
		return
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// authErrorMessage maps auth failures to an inline form message.
func authErrorMessage(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "An account with this email already exists."
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusUnprocessableEntity, "Please enter a valid email address."
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity, auth.ErrWeakPassword.Error() + "."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func (s *Server) renderSignIn(w http.ResponseWriter, r *http.Request, status int, page signInPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "signin.html", page); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).
			ErrorContext(r.Context(), "Template execution failed", "template", "signin.html", log.FieldError, err)
	}
}
