package database

import (
	"fmt"
	"time"
)

// CreateRefreshToken stores a new refresh token for a user.
func CreateRefreshToken(token string, userID int, expiresAt int64) (*RefreshToken, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO refresh_tokens (token, user_id, expires_at, used, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, token, userID, expiresAt, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetRefreshToken retrieves a refresh token by value.
func GetRefreshToken(token string) (*RefreshToken, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rt := &RefreshToken{}
	err := db.QueryRow(`
		SELECT token, user_id, expires_at, used, created_at
		FROM refresh_tokens WHERE token = ?
	`, token).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.Used, &rt.CreatedAt)
	if err != nil {
		return nil, err
	}

	return rt, nil
}

// ClaimRefreshToken burns a refresh token so it cannot be replayed. The
// update only matches an unused token, so when claims race on the same
// value exactly one returns true.
func ClaimRefreshToken(token string) (bool, error) {
	db := GetDB()
	if db == nil {
		return false, fmt.Errorf("database not initialized")
	}

	result, err := db.Exec("UPDATE refresh_tokens SET used = 1 WHERE token = ? AND used = 0", token)
	if err != nil {
		return false, fmt.Errorf("failed to claim refresh token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim refresh token: %w", err)
	}
	return affected == 1, nil
}

// DeleteExpiredRefreshTokens removes tokens past their expiry.
func DeleteExpiredRefreshTokens() (int64, error) {
	db := GetDB()
	if db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	result, err := db.Exec("DELETE FROM refresh_tokens WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}
