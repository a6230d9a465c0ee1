package ledger

import (
	"context"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// SearchLimit caps the number of users returned by SearchUsers.
const SearchLimit = 5

// CreateGroup creates a group owned by creatorID and adds the creator as
// its first member.
func (l *Ledger) CreateGroup(ctx context.Context, creatorID, name, description, currency string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("group name is required")
	}
	currency, err := NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	now := l.now()
	group := &models.Group{
		ID:          l.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatorID:   creatorID,
		Currency:    currency,
		CreatedAt:   now,
	}

	err = l.inTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetUserByID(ctx, creatorID); err != nil {
			return err
		}
		if err := q.CreateGroup(ctx, group); err != nil {
			return err
		}
		return q.AddMember(ctx, &models.Membership{GroupID: group.ID, UserID: creatorID, JoinedAt: now})
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns the groups userID belongs to.
func (l *Ledger) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	groups, err := l.store.ListUserGroups(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return groups, nil
}

// RenameGroup changes the group name. Creator only.
func (l *Ledger) RenameGroup(ctx context.Context, groupID, actorID, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("group name is required")
	}

	var group *models.Group
	err := l.inTx(ctx, func(q storage.Queries) error {
		var err error
		if group, err = loadGroup(ctx, q, groupID); err != nil {
			return err
		}
		if err := requireCreator(group, actorID); err != nil {
			return err
		}
		group.Name = name
		return q.UpdateGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// AddMember adds userID to the group. Creator only.
func (l *Ledger) AddMember(ctx context.Context, groupID, actorID, userID string) (*models.User, error) {
	var user *models.User
	err := l.inTx(ctx, func(q storage.Queries) error {
		group, err := loadGroup(ctx, q, groupID)
		if err != nil {
			return err
		}
		if err := requireCreator(group, actorID); err != nil {
			return err
		}
		if user, err = q.GetUserByID(ctx, userID); err != nil {
			return err
		}
		ok, err := q.IsMember(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if ok {
			return validationf("%s is already a member of this group", user.Username)
		}
		return q.AddMember(ctx, &models.Membership{GroupID: groupID, UserID: userID, JoinedAt: l.now()})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RemoveMember removes userID from the group. Creator only. The creator
// cannot be removed, and neither can a member with unsettled splits in
// the group, whether they owe or are owed.
func (l *Ledger) RemoveMember(ctx context.Context, groupID, actorID, userID string) error {
	return l.inTx(ctx, func(q storage.Queries) error {
		group, err := loadGroup(ctx, q, groupID)
		if err != nil {
			return err
		}
		if err := requireCreator(group, actorID); err != nil {
			return err
		}
		if userID == group.CreatorID {
			return validationf("the group creator cannot be removed")
		}
		ok, err := q.IsMember(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return notFoundf("user is not a member of this group")
		}
		n, err := q.CountOutstandingSplits(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if n > 0 {
			return validationf("member has %d unsettled splits in this group", n)
		}
		return q.RemoveMember(ctx, groupID, userID)
	})
}

// DeleteGroup deletes the group with all its expenses, splits and
// memberships. Creator only.
func (l *Ledger) DeleteGroup(ctx context.Context, groupID, actorID string) error {
	return l.inTx(ctx, func(q storage.Queries) error {
		group, err := loadGroup(ctx, q, groupID)
		if err != nil {
			return err
		}
		if err := requireCreator(group, actorID); err != nil {
			return err
		}
		return deleteGroupCascade(ctx, q, groupID)
	})
}

// deleteGroupCascade removes dependents bottom-up: splits, expenses,
// memberships, then the group row.
func deleteGroupCascade(ctx context.Context, q storage.Queries, groupID string) error {
	if err := q.DeleteSplitsByGroup(ctx, groupID); err != nil {
		return err
	}
	if err := q.DeleteExpensesByGroup(ctx, groupID); err != nil {
		return err
	}
	if err := q.DeleteMembershipsByGroup(ctx, groupID); err != nil {
		return err
	}
	return q.DeleteGroup(ctx, groupID)
}

// SearchUsers finds up to SearchLimit users whose username contains query.
func (l *Ledger) SearchUsers(ctx context.Context, query string) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	users, err := l.store.SearchUsers(ctx, query, SearchLimit)
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}
