// Package handlers implements the HTTP endpoints of the web app: the OAuth2
// login flow against Xero and the report run endpoints.
package handlers

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/hotelgroup/pnl-sync/internal/api/middleware"
	"github.com/hotelgroup/pnl-sync/internal/authstore"
)

const stateCookie = "oauth_state"

// AuthHandler handles the OAuth2 authorization code flow.
type AuthHandler struct {
	conf   *oauth2.Config
	tokens *authstore.Store
	log    zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(conf *oauth2.Config, tokens *authstore.Store, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{conf: conf, tokens: tokens, log: log}
}

// Index handles GET / and shows the currently stored token.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	tok, err := h.tokens.Token()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load token")
		return
	}
	renderToken(w, "Stored token", tok)
}

// Login handles GET /login and starts the authorization code flow.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	authURL := h.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	h.log.Info().Msg("Redirecting to Xero authorization")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /callback, exchanges the code and stores the token.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		middleware.WriteError(w, http.StatusBadRequest, "OAuth state mismatch")
		return
	}
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		h.log.Error().Str("error", errMsg).Msg("Authorization denied")
		middleware.WriteError(w, http.StatusForbidden, "Authorization denied: "+errMsg)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	tok, err := h.conf.Exchange(r.Context(), code)
	if err != nil {
		h.log.Error().Err(err).Msg("Token exchange failed")
		middleware.WriteError(w, http.StatusBadGateway, "Token exchange failed")
		return
	}

	if err := h.tokens.Save(tok); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to persist token")
		return
	}

	h.log.Info().Msg("Authenticated with Xero")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles GET /logout and discards the stored token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Clear(); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to clear token")
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// RefreshToken handles GET /refresh-token and forces a token refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	old, err := h.tokens.Token()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load token")
		return
	}

	// Expiring the access token forces the token source to use the
	// refresh token on the next call.
	expired := *old
	expired.Expiry = time.Now().Add(-time.Minute)

	fresh, err := h.tokens.TokenSource(r.Context(), h.conf, &expired).Token()
	if err != nil {
		h.log.Error().Err(err).Msg("Token refresh failed")
		middleware.WriteError(w, http.StatusBadGateway, "Token refresh failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"old": old,
		"new": fresh,
	})
}

// ExportToken handles GET /export-token and downloads the stored token file.
func (h *AuthHandler) ExportToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.tokens.Token()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="oauth2_token.json"`)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tok)
}

func renderToken(w http.ResponseWriter, title string, tok *oauth2.Token) {
	body, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render token")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<html><body><h1>%s</h1><pre>%s</pre>"+
		`<p><a href="/tenants">tenants</a> | <a href="/p-and-l">p&amp;l</a> | `+
		`<a href="/net-income">net income</a> | <a href="/refresh-token">refresh</a> | `+
		`<a href="/export-token">export</a> | <a href="/logout">logout</a></p>`+
		"</body></html>",
		html.EscapeString(title), html.EscapeString(string(body)))
}
