package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/proxy"
	"storefront/session"
)

// SessionHandler ends an expired session before reporting, the same check
// the UI used to run on every page load.
func SessionHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	store := d.Session(r, d.revoker(r))
	expired := store.CheckAndAutoLogout(r.Context())

	view := store.View(r.Context())
	if expired {
		view.Expired = true
	}
	proxy.WriteJSON(w, http.StatusOK, view)
}

func StartSessionHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	var req models.LoginResult
	if err := decodeJSON(r, &req); err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Token == "" || req.User == nil {
		proxy.WriteJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "token and user are required"})
		return
	}

	store := d.Session(r, nil)
	if err := store.Login(r.Context(), req.Token, req.User); err != nil {
		d.log(r).Error("start session failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}
	proxy.WriteJSON(w, http.StatusOK, store.View(r.Context()))
}

func EndSessionHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	rev := d.revoker(r)
	store := d.Session(r, rev)
	if err := store.Logout(r.Context()); err != nil {
		d.log(r).Error("end session failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to end session", err)
		return
	}
	proxy.CopySetCookies(w.Header(), rev.setCookies)
	proxy.WriteJSON(w, http.StatusOK, models.SessionView{LoggedIn: false})
}

func UpdateProfileHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	var edit models.ProfileEdit
	if err := decodeJSON(r, &edit); err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, err := d.Session(r, nil).UpdateProfile(r.Context(), edit)
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		proxy.WriteJSON(w, http.StatusUnauthorized, errAuthRequired)
	case errors.Is(err, session.ErrInvalidProfile):
		proxy.WriteError(w, http.StatusBadRequest, "Invalid profile", err)
	case err != nil:
		d.log(r).Error("update profile failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to update profile", err)
	default:
		proxy.WriteJSON(w, http.StatusOK, profile)
	}
}

func SessionCartHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	code, err := d.Session(r, nil).GetOrCreateCartID(r.Context())
	if err != nil {
		d.log(r).Error("cart code unavailable", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to get cart code", err)
		return
	}
	proxy.WriteJSON(w, http.StatusOK, models.CartIdentity{CartCode: code})
}

func (d *Deps) revoker(r *http.Request) *backendRevoker {
	return &backendRevoker{
		fwd:     d.Auth,
		origin:  d.Origin,
		cookies: d.forwardedCookies(r),
	}
}
