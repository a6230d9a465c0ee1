package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (q *queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := q.exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		toUnix(user.CreatedAt),
		toUnix(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var createdAt, updatedAt int64
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = fromUnix(createdAt)
	user.UpdatedAt = fromUnix(updatedAt)
	return user, nil
}

func (q *queries) getUserBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	user, err := scanUser(q.queryRow(ctx, query, value))
	if err != nil {
		if errors.Is(mapError(err), storage.ErrNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (q *queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return q.getUserBy(ctx, "id", id)
}

// GetUserByEmail retrieves a user by their email address.
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return q.getUserBy(ctx, "email", email)
}

// GetUserByUsername retrieves a user by their username.
func (q *queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return q.getUserBy(ctx, "username", username)
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Returns a map of user ID to User for efficient lookup.
func (q *queries) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (` + placeholders(len(ids)) + `)`

	rows, err := q.query(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// SearchUsers finds users whose username contains query, ignoring case.
func (q *queries) SearchUsers(ctx context.Context, search string, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(username) LIKE LOWER(?) ESCAPE '\'
		ORDER BY username
		LIMIT ?
	`

	pattern := "%" + escapeLike(search) + "%"
	rows, err := q.query(ctx, query, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
