package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/proxy"
)

// PreferencesHandler reports the browser's UI settings.
func PreferencesHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	store := d.Session(r, nil)
	proxy.WriteJSON(w, http.StatusOK, models.Preferences{DarkMode: store.DarkMode(r.Context())})
}

func UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	var prefs struct {
		DarkMode *bool `json:"dark_mode"`
	}
	if err := decodeJSON(r, &prefs); err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if prefs.DarkMode == nil {
		proxy.WriteJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "dark_mode is required"})
		return
	}

	store := d.Session(r, nil)
	if err := store.SetDarkMode(r.Context(), *prefs.DarkMode); err != nil {
		d.log(r).Error("update preferences failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to update preferences", err)
		return
	}
	proxy.WriteJSON(w, http.StatusOK, models.Preferences{DarkMode: *prefs.DarkMode})
}
