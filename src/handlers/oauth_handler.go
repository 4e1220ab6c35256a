package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/username/tradeledger/backend/src/config"
	"github.com/username/tradeledger/backend/src/database"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/model"
	"github.com/username/tradeledger/backend/src/security"
	"github.com/username/tradeledger/backend/src/utils"
)

const oauthStateCookieName = "oauth_state"

type OAuthHandler struct {
	authService *security.AuthService
	oauthConfig *oauth2.Config
}

func NewOAuthHandler(authService *security.AuthService) *OAuthHandler {
	return &OAuthHandler{
		authService: authService,
		oauthConfig: &oauth2.Config{
			ClientID:     config.Cfg.GoogleClientID,
			ClientSecret: config.Cfg.GoogleClientSecret,
			RedirectURL:  config.Cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// GoogleLoginHandler starts the OAuth flow with a per-request state value.
func (h *OAuthHandler) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		utils.SendJSONError(w, "Failed to start login flow", http.StatusInternalServerError)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(raw)

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(10 * time.Minute),
	})

	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallbackHandler completes the OAuth flow, provisioning a local user
// on first sign-in, then hands tokens back to the frontend via redirect.
func (h *OAuthHandler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || r.FormValue("state") != stateCookie.Value {
		logger.L.Warn("OAuth state mismatch on callback")
		utils.SendJSONError(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		logger.L.Error("OAuth code exchange failed", "error", err)
		utils.SendJSONError(w, "Failed to exchange authorization code", http.StatusBadGateway)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		logger.L.Error("Failed to fetch Google user info", "error", err)
		utils.SendJSONError(w, "Failed to fetch user info", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil || userInfo.Email == "" {
		logger.L.Error("Invalid Google user info payload", "error", err)
		utils.SendJSONError(w, "Invalid user info response", http.StatusBadGateway)
		return
	}

	user, err := model.GetUserByEmail(database.DB, userInfo.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		user = &model.User{
			Username:     userInfo.Name,
			Email:        userInfo.Email,
			AuthProvider: "google",
		}
		if createErr := user.CreateUser(database.DB); createErr != nil {
			logger.L.Error("Failed to provision OAuth user", "email", userInfo.Email, "error", createErr)
			utils.SendJSONError(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
	} else if err != nil {
		logger.L.Error("User lookup failed on OAuth callback", "email", userInfo.Email, "error", err)
		utils.SendJSONError(w, "Failed to look up user", http.StatusInternalServerError)
		return
	}

	accessToken, err := h.authService.GenerateToken(fmt.Sprintf("%d", user.ID))
	if err != nil {
		utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		utils.SendJSONError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	redirect := fmt.Sprintf("%s/auth/callback?access_token=%s&refresh_token=%s",
		config.Cfg.FrontendBaseURL, url.QueryEscape(accessToken), url.QueryEscape(refreshToken))
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}
