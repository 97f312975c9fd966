package server

import (
	"net/http"

	"stockpulse/internal/database"
	"stockpulse/internal/logging"
)

// handleCurrentUser serves the authenticated account: GET returns the
// profile, DELETE removes the account and its tokens.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toUserResponse(user))
	case http.MethodDelete:
		if err := database.DeleteUser(user.ID); err != nil {
			logging.Error("Failed to delete user %d: %v", user.ID, err)
			writeError(w, http.StatusInternalServerError, "Failed to delete account")
			return
		}
		logging.Printf("Deleted user %s", user.Email)
		writeJSON(w, http.StatusOK, map[string]string{"detail": "Account deleted"})
	default:
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// handleResetPassword sets a new password for the authenticated account.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	user := getUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		logging.Error("Failed to hash password: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}
	if err := database.UpdateUserPassword(user.ID, hash); err != nil {
		logging.Error("Failed to update password for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"detail": "Password updated"})
}
