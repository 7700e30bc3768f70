package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/proxy"
	"storefront/utils"
)

const (
	loginPath    = "/users/login/"
	logoutPath   = "/users/logout/"
	registerPath = "/users/register/"

	authTokenCookie = "authToken"

	mailTimeout = 15 * time.Second
)

func LoginHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	body, err := readJSON(r)
	if err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	header := jsonHeader()
	header.Set("Origin", d.Origin)
	resp, err := d.Auth.Do(r.Context(), proxy.Call{
		Method: http.MethodPost,
		Path:   loginPath,
		Header: header,
		Body:   body,
	})
	if err != nil {
		d.log(r).Error("login proxy failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to connect to authentication server", err)
		return
	}

	// the backend reports bad credentials as 200 with an error field
	if resp.HasTruthyError() {
		proxy.WriteRaw(w, http.StatusUnauthorized, resp.Payload())
		return
	}

	if resp.OK() {
		d.recordLogin(r, resp)
	}
	proxy.CopySetCookies(w.Header(), resp.Header)
	proxy.Relay(w, resp)
}

// recordLogin stores a successful login in the browser's session so the
// Session API reflects it without a second round trip from the UI.
func (d *Deps) recordLogin(r *http.Request, resp *proxy.Response) {
	if ClientID(r.Context()) == "" || d.Storage == nil {
		return
	}
	var result models.LoginResult
	if err := json.Unmarshal(resp.Body, &result); err != nil || result.Token == "" || result.User == nil {
		return
	}
	if err := d.Session(r, nil).Login(r.Context(), result.Token, result.User); err != nil {
		d.log(r).Warn("could not record session after login", zap.Error(err))
	}
}

// clearSession drops the locally stored session without calling the backend
// again.
func (d *Deps) clearSession(r *http.Request) {
	if ClientID(r.Context()) == "" || d.Storage == nil {
		return
	}
	store := d.Session(r, nil)
	if !store.IsLoggedIn(r.Context()) {
		return
	}
	if err := store.Logout(r.Context()); err != nil {
		d.log(r).Warn("could not clear session after logout", zap.Error(err))
	}
}

func LogoutHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	header := jsonHeader()
	header.Set("Origin", d.Origin)
	if cookies := d.forwardedCookies(r); cookies != "" {
		header.Set("Cookie", cookies)
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		header.Set("Authorization", auth)
	}

	resp, err := d.Auth.Do(r.Context(), proxy.Call{
		Method: http.MethodGet,
		Path:   logoutPath,
		Header: header,
	})
	// the browser's session ends whatever the backend said
	d.clearSession(r)
	if err != nil {
		d.log(r).Error("logout proxy failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to connect to authentication server for logout", err)
		return
	}

	proxy.CopySetCookies(w.Header(), resp.Header)
	proxy.Relay(w, resp)
}

type registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func RegisterHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	body, err := readJSON(r)
	if err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := d.Auth.Do(r.Context(), proxy.Call{
		Method: http.MethodPost,
		Path:   registerPath,
		Header: jsonHeader(),
		Body:   body,
	})
	if err != nil {
		d.log(r).Error("register proxy failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to connect to authentication server", err)
		return
	}

	if !resp.OK() {
		proxy.Relay(w, resp)
		return
	}
	if resp.LooksLikeFieldErrors() {
		proxy.WriteRaw(w, http.StatusBadRequest, resp.Payload())
		return
	}

	var reg registration
	if err := json.Unmarshal(body, &reg); err == nil && reg.Email != "" {
		d.sendWelcome(reg)
	}
	proxy.Relay(w, resp)
}

// sendWelcome mails the new customer in the background; the request does
// not wait for it.
func (d *Deps) sendWelcome(reg registration) {
	if d.Mailer == nil {
		return
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		name := models.UserProfile{FirstName: reg.FirstName, LastName: reg.LastName}.FullName()
		if name == "" {
			name = reg.Username
		}
		if err := d.Mailer.SendWelcome(ctx, name, reg.Email); err != nil {
			logger.Warn("welcome mail failed", zap.String("email", reg.Email), zap.Error(err))
			return
		}
		logger.Info("welcome mail sent", zap.String("email", reg.Email))
	}()
}

// backendRevoker logs a token out on the backend and keeps the backend's
// cookie-clearing headers for the browser.
type backendRevoker struct {
	fwd     *proxy.Forwarder
	origin  string
	cookies string

	setCookies http.Header
}

func (b *backendRevoker) Revoke(ctx context.Context, token string) error {
	header := jsonHeader()
	header.Set("Origin", b.origin)
	if b.cookies != "" {
		header.Set("Cookie", b.cookies)
	}
	if token != "" {
		header.Set("Authorization", "Token "+token)
	}

	resp, err := b.fwd.Do(ctx, proxy.Call{Method: http.MethodGet, Path: logoutPath, Header: header})
	if err != nil {
		return err
	}
	b.setCookies = http.Header{}
	proxy.CopySetCookies(b.setCookies, resp.Header)
	if !resp.OK() {
		return fmt.Errorf("backend logout returned %d", resp.Status)
	}
	return nil
}

// tokenFor finds the caller's backend token: authToken cookie, then an
// Authorization header, then the stored session.
func (d *Deps) tokenFor(r *http.Request) string {
	if utils.CookieExists(r, authTokenCookie) {
		return utils.CookieValue(r, authTokenCookie)
	}
	if tok := utils.CredentialFromHeader(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	if ClientID(r.Context()) == "" || d.Storage == nil {
		return ""
	}
	tok, _ := d.Session(r, nil).Token(r.Context())
	return tok
}
