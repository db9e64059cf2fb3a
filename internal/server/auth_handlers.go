package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	identitydomain "github.com/iconic-inc/iconic-erp-sub000/internal/identity/domain"
	"github.com/iconic-inc/iconic-erp-sub000/internal/identity/service"
)

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

type identityResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	RoleSlug string `json:"roleSlug"`
	Status   string `json:"status"`
}

type signInResponse struct {
	Identity     identityResponse `json:"identity"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresAt    time.Time        `json:"expiresAt"`
}

type tokenPairResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func toIdentityResponse(i *identitydomain.Identity) identityResponse {
	return identityResponse{
		ID:       i.ID,
		Email:    i.Email,
		Username: i.Username,
		Name:     i.Name,
		RoleSlug: i.RoleSlug,
		Status:   string(i.Status),
	}
}

// handleSignIn verifies credentials and opens a session for the device,
// returning the identity and a fresh token pair.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := s.auth.SignIn(r.Context(), req.Username, req.Password, req.DeviceID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeBadRequest(w, "invalid credentials")
			return
		}
		s.logger.Error("sign-in failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, signInResponse{
		Identity:     toIdentityResponse(result.Identity),
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresAt:    result.Tokens.ExpiresAt,
	})
}

// handleRefreshToken rotates the refresh token for the caller's session.
// Reuse of an already-rotated token destroys the session and returns 403.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.Header.Get(headerClientID))
	deviceID := strings.TrimSpace(r.Header.Get(headerDeviceID))
	refreshToken := strings.TrimSpace(r.Header.Get(headerRefreshToken))
	if clientID == "" || deviceID == "" || refreshToken == "" {
		writeBadRequest(w, "missing refresh headers")
		return
	}

	pair, err := s.auth.Refresh(r.Context(), clientID, refreshToken, deviceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReplayDetected):
			writeError(w, http.StatusForbidden, ErrCodeReplayDetected,
				"refresh token already used; session terminated")
		case errors.Is(err, service.ErrBadRefreshRequest):
			writeBadRequest(w, "invalid refresh request")
		case errors.Is(err, service.ErrUnauthorized):
			writeUnauthorized(w, "invalid or expired refresh token")
		default:
			s.logger.Error("refresh failed", "error", err)
			writeInternalError(w, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// handleSignOut destroys the caller's session. Requires authentication.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r.Context())
	sess, ok2 := sessionFrom(r.Context())
	if !ok || !ok2 {
		writeUnauthorized(w, "missing credentials")
		return
	}

	if err := s.auth.SignOut(r.Context(), sess.ID, ident.ID); err != nil {
		s.logger.Error("sign-out failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}
