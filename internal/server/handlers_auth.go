package server

import (
	"net/http"
	"strings"
	"time"

	"stockpulse/internal/database"
	"stockpulse/internal/logging"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u *database.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// handleRegister creates a new account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if _, err := database.GetUserByEmail(req.Email); err == nil {
		writeError(w, http.StatusBadRequest, msgEmailTaken)
		return
	} else if !database.IsNotFound(err) {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		logging.Error("Failed to hash password: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user, err := database.CreateUser(req.Email, hash)
	if err != nil {
		logging.Error("Failed to create user: %v", err)
		writeError(w, http.StatusBadRequest, msgEmailTaken)
		return
	}

	logging.Printf("Registered user %s", user.Email)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// handleAccessToken exchanges credentials for a token pair.
func (s *Server) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := database.GetUserByEmail(req.Email)
	if err != nil {
		if database.IsNotFound(err) {
			// Spend the same bcrypt work as a real comparison so timing
			// does not reveal whether the account exists.
			burnPasswordCheck(req.Password)
			writeError(w, http.StatusUnauthorized, msgIncorrectCredentials)
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !checkPassword(req.Password, user.HashedPassword) {
		writeError(w, http.StatusUnauthorized, msgIncorrectCredentials)
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusBadRequest, msgInactiveUser)
		return
	}

	pair, err := s.issueTokenPair(user.ID)
	if err != nil {
		logging.Error("Failed to issue tokens for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	if err := database.UpdateLastLogin(user.ID); err != nil {
		logging.Warning("Failed to record last login for user %d: %v", user.ID, err)
	}

	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleRefreshToken rotates a single-use refresh token into a new pair.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	stored, err := database.GetRefreshToken(req.RefreshToken)
	if err != nil {
		if database.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, msgInvalidRefreshToken)
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if stored.ExpiresAt < time.Now().Unix() {
		writeError(w, http.StatusUnauthorized, msgInvalidRefreshToken)
		return
	}

	// The claim is atomic, so a concurrent request racing on the same
	// token loses here and gets no new pair.
	claimed, err := database.ClaimRefreshToken(stored.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !claimed {
		writeError(w, http.StatusUnauthorized, msgInvalidRefreshToken)
		return
	}

	pair, err := s.issueTokenPair(stored.UserID)
	if err != nil {
		logging.Error("Failed to rotate tokens for user %d: %v", stored.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// issueTokenPair creates an access token and persists a fresh refresh token.
func (s *Server) issueTokenPair(userID int) (*tokenResponse, error) {
	access, err := s.createAccessToken(userID)
	if err != nil {
		return nil, err
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(time.Duration(s.config.RefreshTokenExpireSecs) * time.Second).Unix()
	if _, err := database.CreateRefreshToken(refresh, userID, expiresAt); err != nil {
		return nil, err
	}

	return &tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
