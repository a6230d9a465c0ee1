package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewGroupService creates a new GroupService on top of the ledger.
func NewGroupService(l *ledger.Ledger, logger *slog.Logger) *GroupService {
	return &GroupService{ledger: l, logger: logger}
}

// CreateGroup creates a new group with the caller as creator and first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.ledger.CreateGroup(ctx, userID, req.Msg.Name, req.Msg.Description, req.Msg.Currency)
	if err != nil {
		return nil, toConnectError(s.logger, "CreateGroup", err)
	}

	s.logger.Info("Group created", "group_id", group.ID, "currency", group.Currency)
	return connect.NewResponse(&GroupResponse{Group: groupMsg(group)}), nil
}

// GetGroup returns the group view: members, expenses with splits and the
// net outstanding balance of each member.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GroupViewResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	view, err := s.ledger.GroupView(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetGroup", err)
	}

	s.logger.Info("GetGroup successful", "group_id", view.Group.ID, "expenses", len(view.Expenses))
	return connect.NewResponse(&GroupViewResponse{
		Group:    groupMsg(view.Group),
		Members:  publicUsers(view.Members),
		Expenses: expenseMsgs(view.Expenses),
		Balances: formatAmounts(view.Balances, view.Group.Currency),
	}), nil
}

// ListGroups returns the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.ledger.ListGroups(ctx, userID)
	if err != nil {
		return nil, toConnectError(s.logger, "ListGroups", err)
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = groupMsg(g)
	}
	return connect.NewResponse(&ListGroupsResponse{Groups: out}), nil
}

// RenameGroup changes a group's name. Creator only.
func (s *GroupService) RenameGroup(ctx context.Context, req *connect.Request[RenameGroupRequest]) (*connect.Response[GroupResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.ledger.RenameGroup(ctx, req.Msg.GroupID, userID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(s.logger, "RenameGroup", err)
	}

	s.logger.Info("Group renamed", "group_id", group.ID, "name", group.Name)
	return connect.NewResponse(&GroupResponse{Group: groupMsg(group)}), nil
}

// AddMember adds a user to a group. Creator only.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[UserResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	member, err := s.ledger.AddMember(ctx, req.Msg.GroupID, userID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(s.logger, "AddMember", err)
	}

	s.logger.Info("Member added", "group_id", req.Msg.GroupID, "member_id", member.ID)
	return connect.NewResponse(&UserResponse{User: publicUser(member)}), nil
}

// RemoveMember removes a user from a group. Creator only.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[SuccessResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.ledger.RemoveMember(ctx, req.Msg.GroupID, userID, req.Msg.UserID); err != nil {
		return nil, toConnectError(s.logger, "RemoveMember", err)
	}

	s.logger.Info("Member removed", "group_id", req.Msg.GroupID, "member_id", req.Msg.UserID)
	return connect.NewResponse(&SuccessResponse{Success: true, Message: "Member removed"}), nil
}

// DeleteGroup deletes a group and everything in it. Creator only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[SuccessResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(s.logger, "DeleteGroup", err)
	}

	s.logger.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&SuccessResponse{Success: true, Message: "Group deleted"}), nil
}

// GetGroupBalances returns each member's outstanding owes and owed, the
// pairwise breakdown and a list of suggested payments.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GroupBalancesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	sheet, err := s.ledger.GroupBalances(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetGroupBalances", err)
	}

	return connect.NewResponse(balanceSheetMsg(sheet)), nil
}
