package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/username/tradeledger/backend/src/config"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/utils"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

// signCSRFToken binds a random token value to the server's auth key so a
// forged cookie cannot pass validation.
func signCSRFToken(value string) string {
	mac := hmac.New(sha256.New, []byte(config.Cfg.CSRFAuthKey))
	mac.Write([]byte(value))
	return value + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func validCSRFToken(token string) bool {
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '.' {
			expected := signCSRFToken(token[:i])
			return hmac.Equal([]byte(expected), []byte(token))
		}
	}
	return false
}

// GetCSRFToken issues a fresh signed token as both a cookie and a JSON body
// for the double-submit pattern.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		logger.L.Error("Failed to generate CSRF token", "error", err)
		utils.SendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
		return
	}

	token := signCSRFToken(base64.RawURLEncoding.EncodeToString(raw))

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"csrf_token": token})
}

// CSRFMiddleware enforces the double-submit check on state-changing requests.
func CSRFMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil {
			utils.SendJSONError(w, "CSRF cookie missing", http.StatusForbidden)
			return
		}

		header := r.Header.Get(csrfHeaderName)
		if header == "" || header != cookie.Value || !validCSRFToken(header) {
			logger.L.Warn("CSRF validation failed", "path", r.URL.Path)
			utils.SendJSONError(w, "CSRF validation failed", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}
