package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// Fully-qualified service names. Each service is mounted at "/<name>/".
const (
	AuthServiceName    = "splitledger.v1.AuthService"
	GroupServiceName   = "splitledger.v1.GroupService"
	ExpenseServiceName = "splitledger.v1.ExpenseService"
	BalanceServiceName = "splitledger.v1.BalanceService"
)

// Procedure paths.
const (
	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceLogoutProcedure         = "/" + AuthServiceName + "/Logout"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
	AuthServiceSearchUsersProcedure    = "/" + AuthServiceName + "/SearchUsers"

	GroupServiceCreateGroupProcedure      = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure         = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure       = "/" + GroupServiceName + "/ListGroups"
	GroupServiceRenameGroupProcedure      = "/" + GroupServiceName + "/RenameGroup"
	GroupServiceAddMemberProcedure        = "/" + GroupServiceName + "/AddMember"
	GroupServiceRemoveMemberProcedure     = "/" + GroupServiceName + "/RemoveMember"
	GroupServiceDeleteGroupProcedure      = "/" + GroupServiceName + "/DeleteGroup"
	GroupServiceGetGroupBalancesProcedure = "/" + GroupServiceName + "/GetGroupBalances"

	ExpenseServiceCreateExpenseProcedure = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceGetExpenseProcedure    = "/" + ExpenseServiceName + "/GetExpense"
	ExpenseServiceUpdateExpenseProcedure = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceUpdateSplitsProcedure  = "/" + ExpenseServiceName + "/UpdateSplits"
	ExpenseServiceDeleteExpenseProcedure = "/" + ExpenseServiceName + "/DeleteExpense"
	ExpenseServiceSettleSplitProcedure   = "/" + ExpenseServiceName + "/SettleSplit"
	ExpenseServiceUnsettleSplitProcedure = "/" + ExpenseServiceName + "/UnsettleSplit"

	BalanceServiceGetPairwiseBalanceProcedure  = "/" + BalanceServiceName + "/GetPairwiseBalance"
	BalanceServiceGetUserGroupBalanceProcedure = "/" + BalanceServiceName + "/GetUserGroupBalance"
	BalanceServiceGetDashboardProcedure        = "/" + BalanceServiceName + "/GetDashboard"
)

// handlerOptions puts the JSON codec in front of caller options.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithJSON()}, opts...)
}

// NewAuthServiceHandler builds an HTTP handler for AuthService and returns
// the path to mount it on.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	mux.Handle(AuthServiceLogoutProcedure, connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...))
	mux.Handle(AuthServiceGetCurrentUserProcedure, connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...))
	mux.Handle(AuthServiceSearchUsersProcedure, connect.NewUnaryHandler(AuthServiceSearchUsersProcedure, svc.SearchUsers, opts...))
	return "/" + AuthServiceName + "/", mux
}

// NewGroupServiceHandler builds an HTTP handler for GroupService.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceRenameGroupProcedure, connect.NewUnaryHandler(GroupServiceRenameGroupProcedure, svc.RenameGroup, opts...))
	mux.Handle(GroupServiceAddMemberProcedure, connect.NewUnaryHandler(GroupServiceAddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(GroupServiceRemoveMemberProcedure, connect.NewUnaryHandler(GroupServiceRemoveMemberProcedure, svc.RemoveMember, opts...))
	mux.Handle(GroupServiceDeleteGroupProcedure, connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...))
	mux.Handle(GroupServiceGetGroupBalancesProcedure, connect.NewUnaryHandler(GroupServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...))
	return "/" + GroupServiceName + "/", mux
}

// NewExpenseServiceHandler builds an HTTP handler for ExpenseService.
func NewExpenseServiceHandler(svc *ExpenseService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(ExpenseServiceCreateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(ExpenseServiceGetExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...))
	mux.Handle(ExpenseServiceUpdateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...))
	mux.Handle(ExpenseServiceUpdateSplitsProcedure, connect.NewUnaryHandler(ExpenseServiceUpdateSplitsProcedure, svc.UpdateSplits, opts...))
	mux.Handle(ExpenseServiceDeleteExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(ExpenseServiceSettleSplitProcedure, connect.NewUnaryHandler(ExpenseServiceSettleSplitProcedure, svc.SettleSplit, opts...))
	mux.Handle(ExpenseServiceUnsettleSplitProcedure, connect.NewUnaryHandler(ExpenseServiceUnsettleSplitProcedure, svc.UnsettleSplit, opts...))
	return "/" + ExpenseServiceName + "/", mux
}

// NewBalanceServiceHandler builds an HTTP handler for BalanceService.
func NewBalanceServiceHandler(svc *BalanceService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(BalanceServiceGetPairwiseBalanceProcedure, connect.NewUnaryHandler(BalanceServiceGetPairwiseBalanceProcedure, svc.GetPairwiseBalance, opts...))
	mux.Handle(BalanceServiceGetUserGroupBalanceProcedure, connect.NewUnaryHandler(BalanceServiceGetUserGroupBalanceProcedure, svc.GetUserGroupBalance, opts...))
	mux.Handle(BalanceServiceGetDashboardProcedure, connect.NewUnaryHandler(BalanceServiceGetDashboardProcedure, svc.GetDashboard, opts...))
	return "/" + BalanceServiceName + "/", mux
}
