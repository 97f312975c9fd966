package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateUser inserts a new user with an already-hashed password.
func CreateUser(email, hashedPassword string) (*User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	now := time.Now()
	result, err := db.Exec(`
		INSERT INTO users (email, hashed_password, is_active, created_at)
		VALUES (?, ?, 1, ?)
	`, email, hashedPassword, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	return &User{
		ID:             int(id),
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		CreatedAt:      now,
	}, nil
}

// GetUserByEmail retrieves a user by email regardless of active status, so
// callers can distinguish a disabled account from an unknown one. Returns
// sql.ErrNoRows when no such user exists.
func GetUserByEmail(email string) (*User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	user := &User{}
	err := db.QueryRow(`
		SELECT id, email, hashed_password, is_active, created_at, last_login
		FROM users WHERE email = ?
	`, email).Scan(
		&user.ID, &user.Email, &user.HashedPassword,
		&user.IsActive, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves an active user by ID.
func GetUserByID(id int) (*User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	user := &User{}
	err := db.QueryRow(`
		SELECT id, email, hashed_password, is_active, created_at, last_login
		FROM users WHERE id = ? AND is_active = 1
	`, id).Scan(
		&user.ID, &user.Email, &user.HashedPassword,
		&user.IsActive, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUserPassword replaces the stored password hash for a user.
func UpdateUserPassword(id int, hashedPassword string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec("UPDATE users SET hashed_password = ? WHERE id = ?", hashedPassword, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateLastLogin records a successful authentication.
func UpdateLastLogin(id int) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec("UPDATE users SET last_login = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update last_login: %w", err)
	}
	return nil
}

// DeleteUser removes a user and their refresh tokens.
func DeleteUser(id int) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.Exec("DELETE FROM refresh_tokens WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return tx.Commit()
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
