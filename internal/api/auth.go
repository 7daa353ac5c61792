package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// SessionCookieName is the cookie carrying the signed session id.
	SessionCookieName = "skirmish_session"

	// SessionDuration controls how long an issued session stays valid.
	SessionDuration = 24 * time.Hour

	CookieSecure   = false // set true in production behind HTTPS
	CookieHTTPOnly = true
	CookieSameSite = http.SameSiteLaxMode
)

// OperatorSession represents an authenticated control-surface session.
// There is no external identity provider in this system (unlike the
// teacher's Kick-OAuth broadcaster login) — sessions are minted directly
// by CreateSession for whatever operator identity the caller supplies,
// e.g. a CLI token or a config-supplied API key.
type OperatorSession struct {
	OperatorID string    `json:"operator_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SessionManager mints and validates HMAC-signed sessions for mutating
// control-surface endpoints.
type SessionManager struct {
	mu sync.RWMutex

	sessions  map[string]*OperatorSession
	secretKey []byte
}

// NewSessionManager creates a new session manager with a fresh random
// signing key (sessions do not survive a process restart, matching the
// teacher's per-instance secret).
func NewSessionManager() *SessionManager {
	secretKey := make([]byte, 32)
	if _, err := rand.Read(secretKey); err != nil {
		log.Printf("failed to generate session secret, using fallback")
		secretKey = []byte("skirmish-default-session-key-32")
	}

	return &SessionManager{
		sessions:  make(map[string]*OperatorSession),
		secretKey: secretKey,
	}
}

// CreateSession mints a new session for operatorID.
func (sm *SessionManager) CreateSession(operatorID string) (string, error) {
	if operatorID == "" {
		return "", fmt.Errorf("operator id required")
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	sessionID := generateSessionID()
	sm.sessions[sessionID] = &OperatorSession{
		OperatorID: operatorID,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(SessionDuration),
	}

	return sessionID, nil
}

// GetSession retrieves a session by id, returning nil if absent or expired.
func (sm *SessionManager) GetSession(sessionID string) *OperatorSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil
	}
	if time.Now().After(session.ExpiresAt) {
		return nil
	}
	return session
}

// DeleteSession removes a session.
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}

// ValidateSession checks if a request carries a valid session cookie.
func (sm *SessionManager) ValidateSession(r *http.Request) *OperatorSession {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}
	sessionID, err := sm.decodeCookie(cookie.Value)
	if err != nil {
		return nil
	}
	return sm.GetSession(sessionID)
}

// SetSessionCookie sets the session cookie on the response.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sm.encodeCookie(sessionID),
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: CookieHTTPOnly,
		Secure:   CookieSecure,
		SameSite: CookieSameSite,
	})
}

// ClearSessionCookie removes the session cookie.
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: CookieHTTPOnly,
		Secure:   CookieSecure,
		SameSite: CookieSameSite,
	})
}

func (sm *SessionManager) encodeCookie(sessionID string) string {
	mac := hmac.New(sha256.New, sm.secretKey)
	mac.Write([]byte(sessionID))
	signature := hex.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(sessionID + "." + signature))
}

func (sm *SessionManager) decodeCookie(cookieValue string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(cookieValue)
	if err != nil {
		return "", fmt.Errorf("invalid cookie encoding")
	}

	parts := strings.SplitN(string(decoded), ".", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid cookie format")
	}
	sessionID, providedSig := parts[0], parts[1]

	mac := hmac.New(sha256.New, sm.secretKey)
	mac.Write([]byte(sessionID))
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(providedSig), []byte(expectedSig)) {
		return "", fmt.Errorf("invalid cookie signature")
	}
	return sessionID, nil
}

func generateSessionID() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RequireSessionMiddleware rejects mutating requests lacking a valid
// session. Read-only GETs are left alone by the router (this middleware
// is only mounted on the mutating route group).
func (sm *SessionManager) RequireSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.ValidateSession(r) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "unauthorized",
				"message": "a valid session is required for this operation",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthStatus reports the current authentication status.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	OperatorID    string `json:"operator_id,omitempty"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
}

// HandleAuthStatus returns the current auth status for the caller.
func (sm *SessionManager) HandleAuthStatus(w http.ResponseWriter, r *http.Request) {
	session := sm.ValidateSession(r)

	status := AuthStatus{Authenticated: session != nil}
	if session != nil {
		status.OperatorID = session.OperatorID
		status.ExpiresAt = session.ExpiresAt.Unix()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// HandleLogin mints a session for the operator id in the request body
// and sets the session cookie. There is no external OAuth exchange in
// this system; authorization of who may call this endpoint at all is
// the deployer's responsibility (e.g. placing it behind a reverse proxy).
func (sm *SessionManager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OperatorID string `json:"operator_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}

	sessionID, err := sm.CreateSession(req.OperatorID)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sm.SetSessionCookie(w, sessionID)
	writeJSON(w, map[string]bool{"success": true})
}

// HandleLogout clears the caller's session.
func (sm *SessionManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil {
		if sessionID, decErr := sm.decodeCookie(cookie.Value); decErr == nil {
			sm.DeleteSession(sessionID)
		}
	}
	sm.ClearSessionCookie(w)
	writeJSON(w, map[string]bool{"success": true})
}

// cleanupExpiredSessions is called periodically by the server's lifecycle
// loop (see cmd/simserver) rather than a package-owned goroutine, keeping
// internal/api free of self-starting background work outside Server.Start.
func (sm *SessionManager) cleanupExpiredSessions() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	now := time.Now()
	for id, session := range sm.sessions {
		if now.After(session.ExpiresAt) {
			delete(sm.sessions, id)
		}
	}
}
