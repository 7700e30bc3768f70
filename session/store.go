// Package session keeps a shopper's login state in their storage namespace
// using the key layout the storefront UI has always used.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/storage"
	"storefront/utils"
)

// Storage keys.
const (
	KeyAuthToken    = "authToken"
	KeyUserData     = "userData"
	KeyUserID       = "userId"
	KeyUsername     = "username"
	KeyUserEmail    = "userEmail"
	KeyUserFullName = "userFullName"
	KeyLoginTime    = "loginTime"
	KeyIsLoggedIn   = "isLoggedIn"
	KeyCartCode     = "cart_code"
	KeyDarkMode     = "darkMode"
)

// LoginTimeLayout is ISO-8601 in UTC with millisecond precision.
const LoginTimeLayout = "2006-01-02T15:04:05.000Z"

// DefaultTTL is how long a session lasts when Store.TTL is unset.
const DefaultTTL = 24 * time.Hour

// sessionKeys are cleared on logout. The cart and UI preferences outlive a
// session.
var sessionKeys = []string{
	KeyAuthToken,
	KeyUserData,
	KeyUserID,
	KeyUsername,
	KeyUserEmail,
	KeyUserFullName,
	KeyLoginTime,
	KeyIsLoggedIn,
}

var (
	ErrNotLoggedIn    = errors.New("session: not logged in")
	ErrEmptyToken     = errors.New("session: token is empty")
	ErrMissingProfile = errors.New("session: user profile is required")
	ErrInvalidProfile = errors.New("session: invalid profile")
)

// Revoker invalidates a token on the commerce backend.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// Store is one browser's session. Build one per request around the
// browser's storage scope; it holds no state of its own.
//
// Queries never fail: a storage error reads as logged out and is logged.
// Commands return errors.
type Store struct {
	Storage  storage.Storage
	Revoker  Revoker
	Notifier *Notifier
	// Client identifies the browser in logs and events.
	Client string
	// TTL bounds a session's age. Zero means DefaultTTL.
	TTL    time.Duration
	Logger *zap.Logger
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (s *Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger.With(zap.String("client", s.Client))
}

// get reads key, reporting storage failures as absence.
func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, err := s.Storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log().Warn("session storage read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

// IsLoggedIn reports whether a non-empty token is stored.
func (s *Store) IsLoggedIn(ctx context.Context) bool {
	_, ok := s.Token(ctx)
	return ok
}

func (s *Store) Token(ctx context.Context) (string, bool) {
	tok, ok := s.get(ctx, KeyAuthToken)
	if !ok || tok == "" {
		return "", false
	}
	return tok, true
}

// UserProfile returns the stored profile. A corrupt record reads as absent.
func (s *Store) UserProfile(ctx context.Context) (*models.UserProfile, bool) {
	raw, ok := s.get(ctx, KeyUserData)
	if !ok || raw == "" {
		return nil, false
	}
	var p models.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log().Warn("stored user data is not valid JSON", zap.Error(err))
		return nil, false
	}
	return &p, true
}

// LoginTime returns when the current session started.
func (s *Store) LoginTime(ctx context.Context) (time.Time, bool) {
	raw, ok := s.get(ctx, KeyLoginTime)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Login records a successful backend login in a single write.
func (s *Store) Login(ctx context.Context, token string, profile *models.UserProfile) error {
	if token == "" {
		return ErrEmptyToken
	}
	if profile == nil {
		return ErrMissingProfile
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}

	entries := map[string]string{
		KeyAuthToken:    token,
		KeyUserData:     string(data),
		KeyUserID:       strconv.FormatInt(profile.ID, 10),
		KeyUsername:     profile.Username,
		KeyUserEmail:    profile.Email,
		KeyUserFullName: profile.FullName(),
		KeyLoginTime:    s.now().UTC().Format(LoginTimeLayout),
		KeyIsLoggedIn:   "true",
	}
	if err := s.Storage.Set(ctx, entries); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	s.log().Info("logged in",
		zap.Int64("user_id", profile.ID),
		zap.String("token", utils.Fingerprint(token)),
	)
	s.publish(EventLogin)
	return nil
}

// Logout revokes the token on the backend when possible and clears the
// session. A failed revoke is logged and never blocks the local clear.
func (s *Store) Logout(ctx context.Context) error {
	token, _ := s.Token(ctx)
	if s.Revoker != nil {
		if err := s.Revoker.Revoke(ctx, token); err != nil {
			s.log().Warn("backend logout failed, clearing local session anyway",
				zap.String("token", utils.Fingerprint(token)),
				zap.Error(err),
			)
		}
	}

	if err := s.Storage.Remove(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.log().Info("logged out", zap.String("token", utils.Fingerprint(token)))
	s.publish(EventLogout)
	return nil
}

// IsExpired reports whether the session is older than the TTL. A missing or
// unreadable login time counts as expired.
func (s *Store) IsExpired(ctx context.Context) bool {
	started, ok := s.LoginTime(ctx)
	if !ok {
		return true
	}
	return s.now().Sub(started) > s.ttl()
}

// CheckAndAutoLogout ends an expired session and reports whether it did.
func (s *Store) CheckAndAutoLogout(ctx context.Context) bool {
	if !s.IsLoggedIn(ctx) || !s.IsExpired(ctx) {
		return false
	}
	if err := s.Logout(ctx); err != nil {
		s.log().Error("auto logout failed", zap.Error(err))
		return false
	}
	return true
}

// UpdateProfile applies edit to the stored profile. The change is local to
// this browser and is not sent to the backend.
func (s *Store) UpdateProfile(ctx context.Context, edit models.ProfileEdit) (*models.UserProfile, error) {
	if !s.IsLoggedIn(ctx) {
		return nil, ErrNotLoggedIn
	}
	profile, ok := s.UserProfile(ctx)
	if !ok {
		return nil, ErrNotLoggedIn
	}

	if edit.FirstName != nil {
		profile.FirstName = *edit.FirstName
	}
	if edit.LastName != nil {
		profile.LastName = *edit.LastName
	}
	if edit.Email != nil {
		if err := utils.ValidateEmail(*edit.Email); err != nil {
			return nil, fmt.Errorf("%w: email: %w", ErrInvalidProfile, err)
		}
		profile.Email = *edit.Email
	}
	if edit.Username != nil {
		if err := utils.ValidateUsername(*edit.Username); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		profile.Username = *edit.Username
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode user profile: %w", err)
	}
	err = s.Storage.Set(ctx, map[string]string{
		KeyUserData:     string(data),
		KeyUsername:     profile.Username,
		KeyUserEmail:    profile.Email,
		KeyUserFullName: profile.FullName(),
	})
	if err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}

	s.publish(EventProfileUpdated)
	return profile, nil
}

// View summarises the session for the UI.
func (s *Store) View(ctx context.Context) models.SessionView {
	view := models.SessionView{LoggedIn: s.IsLoggedIn(ctx)}
	if !view.LoggedIn {
		return view
	}
	view.Expired = s.IsExpired(ctx)
	if p, ok := s.UserProfile(ctx); ok {
		view.User = p
	}
	if t, ok := s.LoginTime(ctx); ok {
		view.LoginTime = &t
	}
	return view
}

func (s *Store) DarkMode(ctx context.Context) bool {
	v, _ := s.get(ctx, KeyDarkMode)
	return v == "true"
}

func (s *Store) SetDarkMode(ctx context.Context, on bool) error {
	if err := s.Storage.Set(ctx, map[string]string{KeyDarkMode: strconv.FormatBool(on)}); err != nil {
		return fmt.Errorf("store dark mode: %w", err)
	}
	return nil
}

func (s *Store) publish(kind EventKind) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Publish(Event{Kind: kind, Client: s.Client, At: s.now()})
}
