// Package auth signs users up and in, issues HS256 session tokens and
// notifies subscribers whenever a session starts or ends.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"saldo/internal/backend"
	"saldo/internal/core"
	"saldo/internal/log"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrInvalidToken       = errors.New("invalid or expired session")
)

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event describes a session change. UserID is the owner key of the user's records.
type Event struct {
	Type   EventType
	UserID string
	Email  string
}

// Session is an issued token and the identity it carries.
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	users  backend.UserTable
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *log.Logger

	mu      sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
	revoked map[string]time.Time
}

type Option func(*Service)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(users backend.UserTable, secret string, ttl time.Duration, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Service{
		users:   users,
		secret:  []byte(secret),
		ttl:     ttl,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentAuth),
		subs:    make(map[int]func(Event)),
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for session events and returns a function that removes it.
// Subscribers run synchronously on the goroutine that caused the event.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) emit(ev Event) {
	s.mu.RLock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < minPasswordLength {
		return Session{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.InsertUser(ctx, core.User{Email: email, PasswordHash: string(hash)})
	if errors.Is(err, core.ErrConflict) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "User signed up", log.FieldOwner, u.ID)
	return s.startSession(u)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Sign-in rejected", log.FieldOwner, u.ID)
		return Session{}, ErrInvalidCredentials
	}
	return s.startSession(u)
}

func (s *Service) startSession(u core.User) (Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	c := claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	s.emit(Event{Type: EventSignedIn, UserID: u.ID, Email: u.Email})
	return Session{Token: token, UserID: u.ID, Email: u.Email, ExpiresAt: exp}, nil
}

// Verify checks the token signature, expiry and revocation and returns the session it encodes.
func (s *Service) Verify(token string) (Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return Session{}, err
	}
	s.mu.RLock()
	_, revoked := s.revoked[c.ID]
	s.mu.RUnlock()
	if revoked {
		return Session{}, ErrInvalidToken
	}
	return Session{Token: token, UserID: c.Subject, Email: c.Email, ExpiresAt: c.ExpiresAt.Time}, nil
}

// SignOut revokes the token for the rest of its lifetime.
func (s *Service) SignOut(token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	now := s.now()
	s.mu.Lock()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[c.ID] = c.ExpiresAt.Time
	s.mu.Unlock()

	s.emit(Event{Type: EventSignedOut, UserID: c.Subject, Email: c.Email})
	return nil
}

func (s *Service) parse(token string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
