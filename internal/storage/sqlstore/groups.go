package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const groupColumns = `g.id, g.name, g.description, g.creator_id, g.currency, g.created_at`

// CreateGroup persists a new group.
func (q *queries) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	if group.Currency == "" {
		group.Currency = models.DefaultCurrency
	}

	query := `
		INSERT INTO groups (id, name, description, creator_id, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.exec(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.CreatorID,
		group.Currency,
		toUnix(group.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func scanGroup(row scanner) (*models.Group, error) {
	group := &models.Group{}
	var createdAt int64
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.CreatorID,
		&group.Currency,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	group.CreatedAt = fromUnix(createdAt)
	return group, nil
}

// GetGroup retrieves a group by ID.
func (q *queries) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = ?`

	group, err := scanGroup(q.queryRow(ctx, query, groupID))
	if err != nil {
		if errors.Is(mapError(err), storage.ErrNotFound) {
			return nil, storage.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// UpdateGroup updates name, description and currency.
func (q *queries) UpdateGroup(ctx context.Context, group *models.Group) error {
	query := `UPDATE groups SET name = ?, description = ?, currency = ? WHERE id = ?`
	if err := q.execOne(ctx, storage.ErrGroupNotFound, query,
		group.Name, group.Description, group.Currency, group.ID); err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// DeleteGroup deletes the group row.
func (q *queries) DeleteGroup(ctx context.Context, groupID string) error {
	if err := q.execOne(ctx, storage.ErrGroupNotFound, `DELETE FROM groups WHERE id = ?`, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// AddMember inserts a membership row.
func (q *queries) AddMember(ctx context.Context, m *models.Membership) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	query := `INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`
	if _, err := q.exec(ctx, query, m.GroupID, m.UserID, toUnix(m.JoinedAt)); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (q *queries) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `DELETE FROM group_members WHERE group_id = ? AND user_id = ?`
	if err := q.execOne(ctx, storage.ErrMemberNotFound, query, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// IsMember reports whether userID belongs to groupID.
func (q *queries) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	query := `SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`
	var n int
	if err := q.queryRow(ctx, query, groupID, userID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", mapError(err))
	}
	return n > 0, nil
}

// ListGroupMembers returns the group's members in join order.
func (q *queries) ListGroupMembers(ctx context.Context, groupID string) ([]*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at
		FROM users u
		JOIN group_members m ON m.user_id = u.id
		WHERE m.group_id = ?
		ORDER BY m.joined_at, u.username
	`

	rows, err := q.query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return users, nil
}

// ListUserGroups returns every group the user belongs to, newest first.
func (q *queries) ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at DESC, g.name
	`

	rows, err := q.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

// DeleteMembershipsByGroup removes every membership of the group.
func (q *queries) DeleteMembershipsByGroup(ctx context.Context, groupID string) error {
	if _, err := q.exec(ctx, `DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	return nil
}
