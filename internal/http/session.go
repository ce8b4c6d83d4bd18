package http

import (
	"context"
	"net/http"
	"time"

	"saldo/internal/auth"
	"saldo/internal/log"
)

const sessionCookie = "saldo_session"

type sessionKey struct{}

// sessionFrom returns the session attached by requireSession.
func sessionFrom(ctx context.Context) (auth.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(auth.Session)
	return sess, ok
}

// requireSession gates a handler on a valid session cookie. Without one the
// browser is sent to the sign-in page; htmx requests get an HX-Redirect.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			s.redirectToSignIn(w, r)
			return
		}
		sess, err := s.auth.Verify(c.Value)
		if err != nil {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Session rejected", log.FieldError, err)
			s.clearSessionCookie(w)
			s.redirectToSignIn(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Redirect", "/signin").Status(http.StatusUnauthorized).Write(w)
		return
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
