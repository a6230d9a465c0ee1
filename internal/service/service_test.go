package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/logging"
)

const testCookie = "session"

type testServer struct {
	server *httptest.Server
}

// setupTestServer wires every service onto an httptest server backed by a
// fresh SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	logger := logging.New(io.Discard, slog.LevelDebug)
	l := ledger.New(store)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	optional := connect.WithInterceptors(middleware.OptionalAuth(jwtManager, testCookie))
	required := connect.WithInterceptors(middleware.RequireAuth(jwtManager, testCookie))

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(
		NewAuthService(authenticator, jwtManager, store, l, CookieConfig{Name: testCookie}, logger),
		optional,
	))
	mux.Handle(NewGroupServiceHandler(NewGroupService(l, logger), required))
	mux.Handle(NewExpenseServiceHandler(NewExpenseService(l, logger), required))
	mux.Handle(NewBalanceServiceHandler(NewBalanceService(l, logger), required))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return &testServer{server: server}
}

// call invokes a unary procedure with an optional bearer token.
func call[Req, Res any](t *testing.T, ts *testServer, procedure, token string, msg *Req) (*connect.Response[Res], error) {
	t.Helper()
	client := connect.NewClient[Req, Res](ts.server.Client(), ts.server.URL+procedure, WithJSON())
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return client.CallUnary(context.Background(), req)
}

// postJSON sends a raw JSON body to a unary procedure, bypassing the typed
// client so the request can carry values the client would not encode.
func postJSON(t *testing.T, ts *testServer, procedure, token, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.server.URL+procedure, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(out)
}

type session struct {
	token string
	user  User
}

func register(t *testing.T, ts *testServer, username string) session {
	t.Helper()
	res, err := call[RegisterRequest, AuthResponse](t, ts, AuthServiceRegisterProcedure, "", &RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return session{token: res.Msg.Token, user: res.Msg.User}
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := setupTestServer(t)

	res, err := call[RegisterRequest, AuthResponse](t, ts, AuthServiceRegisterProcedure, "", &RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Msg.Token)
	assert.Equal(t, "alice", res.Msg.User.Username)
	assert.Equal(t, "alice@example.com", res.Msg.User.Email)
	assert.Contains(t, res.Header().Get("Set-Cookie"), testCookie+"=")
	assert.Contains(t, res.Header().Get("Set-Cookie"), "HttpOnly")

	t.Run("duplicate username", func(t *testing.T) {
		_, err := call[RegisterRequest, AuthResponse](t, ts, AuthServiceRegisterProcedure, "", &RegisterRequest{
			Username: "alice", Email: "other@example.com", Password: "password123",
		})
		assertCode(t, connect.CodeAlreadyExists, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := call[RegisterRequest, AuthResponse](t, ts, AuthServiceRegisterProcedure, "", &RegisterRequest{
			Username: "alice2", Email: "alice@example.com", Password: "password123",
		})
		assertCode(t, connect.CodeAlreadyExists, err)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := call[RegisterRequest, AuthResponse](t, ts, AuthServiceRegisterProcedure, "", &RegisterRequest{
			Username: "bob", Email: "bob@example.com", Password: "short",
		})
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("password longer than bcrypt accepts", func(t *testing.T) {
		_, err := call[RegisterRequest, AuthResponse](t, ts, AuthServiceRegisterProcedure, "", &RegisterRequest{
			Username: "bob", Email: "bob@example.com", Password: strings.Repeat("p", 73),
		})
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("bad email", func(t *testing.T) {
		_, err := call[RegisterRequest, AuthResponse](t, ts, AuthServiceRegisterProcedure, "", &RegisterRequest{
			Username: "bob", Email: "not-an-email", Password: "password123",
		})
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("login by username and email", func(t *testing.T) {
		for _, login := range []string{"alice", "alice@example.com"} {
			res, err := call[LoginRequest, AuthResponse](t, ts, AuthServiceLoginProcedure, "", &LoginRequest{
				Login: login, Password: "password123",
			})
			require.NoError(t, err, login)
			assert.Equal(t, "alice", res.Msg.User.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := call[LoginRequest, AuthResponse](t, ts, AuthServiceLoginProcedure, "", &LoginRequest{
			Login: "alice", Password: "wrong-password",
		})
		assertCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("current user", func(t *testing.T) {
		me, err := call[GetCurrentUserRequest, UserResponse](t, ts, AuthServiceGetCurrentUserProcedure, res.Msg.Token, &GetCurrentUserRequest{})
		require.NoError(t, err)
		assert.Equal(t, res.Msg.User.ID, me.Msg.User.ID)

		_, err = call[GetCurrentUserRequest, UserResponse](t, ts, AuthServiceGetCurrentUserProcedure, "", &GetCurrentUserRequest{})
		assertCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		out, err := call[LogoutRequest, SuccessResponse](t, ts, AuthServiceLogoutProcedure, res.Msg.Token, &LogoutRequest{})
		require.NoError(t, err)
		assert.True(t, out.Msg.Success)
		assert.Contains(t, out.Header().Get("Set-Cookie"), "Max-Age=0")
	})
}

func TestCookieSession(t *testing.T) {
	ts := setupTestServer(t)
	alice := register(t, ts, "alice")

	client := connect.NewClient[GetCurrentUserRequest, UserResponse](
		ts.server.Client(), ts.server.URL+AuthServiceGetCurrentUserProcedure, WithJSON())
	req := connect.NewRequest(&GetCurrentUserRequest{})
	req.Header().Set("Cookie", testCookie+"="+alice.token)

	res, err := client.CallUnary(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Msg.User.Username)
}

func TestProtectedServicesRequireAuth(t *testing.T) {
	ts := setupTestServer(t)

	_, err := call[ListGroupsRequest, ListGroupsResponse](t, ts, GroupServiceListGroupsProcedure, "", &ListGroupsRequest{})
	assertCode(t, connect.CodeUnauthenticated, err)

	_, err = call[ListGroupsRequest, ListGroupsResponse](t, ts, GroupServiceListGroupsProcedure, "garbage", &ListGroupsRequest{})
	assertCode(t, connect.CodeUnauthenticated, err)
}

func TestSearchUsers(t *testing.T) {
	ts := setupTestServer(t)
	alice := register(t, ts, "alice")
	register(t, ts, "alicia")
	register(t, ts, "bob")

	res, err := call[SearchUsersRequest, SearchUsersResponse](t, ts, AuthServiceSearchUsersProcedure, alice.token, &SearchUsersRequest{Query: "ali"})
	require.NoError(t, err)
	require.Len(t, res.Msg.Users, 1, "caller is excluded")
	assert.Equal(t, "alicia", res.Msg.Users[0].Username)
	assert.Empty(t, res.Msg.Users[0].Email)
}

func TestGroupExpenseFlow(t *testing.T) {
	ts := setupTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")
	carol := register(t, ts, "carol")
	dave := register(t, ts, "dave")

	created, err := call[CreateGroupRequest, GroupResponse](t, ts, GroupServiceCreateGroupProcedure, alice.token, &CreateGroupRequest{Name: "Trip"})
	require.NoError(t, err)
	group := created.Msg.Group
	assert.Equal(t, "USD", group.Currency)
	assert.Equal(t, "$", group.CurrencySymbol)
	assert.Equal(t, alice.user.ID, group.CreatorID)

	for _, u := range []session{bob, carol} {
		_, err := call[AddMemberRequest, UserResponse](t, ts, GroupServiceAddMemberProcedure, alice.token, &AddMemberRequest{GroupID: group.ID, UserID: u.user.ID})
		require.NoError(t, err)
	}

	_, err = call[AddMemberRequest, UserResponse](t, ts, GroupServiceAddMemberProcedure, bob.token, &AddMemberRequest{GroupID: group.ID, UserID: dave.user.ID})
	assertCode(t, connect.CodePermissionDenied, err)

	exp, err := call[CreateExpenseRequest, ExpenseResponse](t, ts, ExpenseServiceCreateExpenseProcedure, alice.token, &CreateExpenseRequest{
		GroupID:     group.ID,
		Description: "Dinner",
		Amount:      decimal.NewFromInt(90),
		SplitWith:   []string{alice.user.ID, bob.user.ID, carol.user.ID},
	})
	require.NoError(t, err)
	expense := exp.Msg.Expense
	assert.Equal(t, "90.00", expense.Amount)
	require.Len(t, expense.Splits, 3)
	for _, s := range expense.Splits {
		assert.Equal(t, "30.00", s.Amount)
		assert.False(t, s.IsSettled)
	}

	t.Run("invalid expenses", func(t *testing.T) {
		_, err := call[CreateExpenseRequest, ExpenseResponse](t, ts, ExpenseServiceCreateExpenseProcedure, alice.token, &CreateExpenseRequest{
			GroupID: group.ID, Description: "Nothing", Amount: decimal.Zero, SplitWith: []string{bob.user.ID},
		})
		assertCode(t, connect.CodeInvalidArgument, err)

		_, err = call[CreateExpenseRequest, ExpenseResponse](t, ts, ExpenseServiceCreateExpenseProcedure, alice.token, &CreateExpenseRequest{
			GroupID: group.ID, Description: "Outsider", Amount: decimal.NewFromInt(10), SplitWith: []string{dave.user.ID},
		})
		assertCode(t, connect.CodeInvalidArgument, err)

		_, err = call[CreateExpenseRequest, ExpenseResponse](t, ts, ExpenseServiceCreateExpenseProcedure, alice.token, &CreateExpenseRequest{
			GroupID: "missing", Description: "Lost", Amount: decimal.NewFromInt(10), SplitWith: []string{bob.user.ID},
		})
		assertCode(t, connect.CodeNotFound, err)
	})

	t.Run("oversized amounts", func(t *testing.T) {
		for _, body := range []string{
			`{"group_id":"` + group.ID + `","description":"Bogus","amount":"1e-20000000","split_with":["` + bob.user.ID + `"]}`,
			`{"group_id":"` + group.ID + `","description":"Bogus","amount":"1e20000000","split_with":["` + bob.user.ID + `"]}`,
		} {
			start := time.Now()
			status, out := postJSON(t, ts, ExpenseServiceCreateExpenseProcedure, alice.token, body)
			assert.Equal(t, http.StatusBadRequest, status, out)
			assert.Contains(t, out, "invalid_argument")
			assert.Less(t, time.Since(start), time.Second)
		}

		status, out := postJSON(t, ts, ExpenseServiceUpdateExpenseProcedure, alice.token,
			`{"expense_id":"`+expense.ID+`","amount":"1e-20000000"}`)
		assert.Equal(t, http.StatusBadRequest, status, out)
		assert.Contains(t, out, "invalid_argument")
	})

	t.Run("group view", func(t *testing.T) {
		view, err := call[GetGroupRequest, GroupViewResponse](t, ts, GroupServiceGetGroupProcedure, bob.token, &GetGroupRequest{GroupID: group.ID})
		require.NoError(t, err)
		assert.Len(t, view.Msg.Members, 3)
		require.Len(t, view.Msg.Expenses, 1)
		assert.Equal(t, "60.00", view.Msg.Balances[alice.user.ID])
		assert.Equal(t, "-30.00", view.Msg.Balances[bob.user.ID])
		assert.Equal(t, "-30.00", view.Msg.Balances[carol.user.ID])

		_, err = call[GetGroupRequest, GroupViewResponse](t, ts, GroupServiceGetGroupProcedure, dave.token, &GetGroupRequest{GroupID: group.ID})
		assertCode(t, connect.CodePermissionDenied, err)
	})

	t.Run("settle", func(t *testing.T) {
		_, err := call[SettleSplitRequest, SettleSplitResponse](t, ts, ExpenseServiceSettleSplitProcedure, alice.token, &SettleSplitRequest{GroupID: group.ID, ExpenseID: expense.ID})
		assertCode(t, connect.CodeInvalidArgument, err)

		_, err = call[SettleSplitRequest, SettleSplitResponse](t, ts, ExpenseServiceSettleSplitProcedure, dave.token, &SettleSplitRequest{GroupID: group.ID, ExpenseID: expense.ID})
		assertCode(t, connect.CodeNotFound, err)

		res, err := call[SettleSplitRequest, SettleSplitResponse](t, ts, ExpenseServiceSettleSplitProcedure, bob.token, &SettleSplitRequest{GroupID: group.ID, ExpenseID: expense.ID})
		require.NoError(t, err)
		assert.True(t, res.Msg.Success)
		assert.Equal(t, "You settled $30.00 with alice!", res.Msg.Message)
		assert.True(t, res.Msg.Split.IsSettled)
		assert.NotEmpty(t, res.Msg.Split.SettledAt)

		_, err = call[SettleSplitRequest, SettleSplitResponse](t, ts, ExpenseServiceSettleSplitProcedure, bob.token, &SettleSplitRequest{GroupID: group.ID, ExpenseID: expense.ID})
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	t.Run("balances after settlement", func(t *testing.T) {
		res, err := call[GetGroupBalancesRequest, GroupBalancesResponse](t, ts, GroupServiceGetGroupBalancesProcedure, alice.token, &GetGroupBalancesRequest{GroupID: group.ID})
		require.NoError(t, err)
		assert.Equal(t, "USD", res.Msg.Currency)
		require.Len(t, res.Msg.Balances, 3)

		byName := make(map[string]MemberBalance)
		for _, b := range res.Msg.Balances {
			byName[b.Username] = b
		}
		assert.Equal(t, "30.00", byName["alice"].Owed)
		assert.Equal(t, "0.00", byName["bob"].Owes)
		assert.Equal(t, "30.00", byName["carol"].Owes)

		require.Len(t, res.Msg.Payments, 1)
		assert.Equal(t, Payment{From: carol.user.ID, To: alice.user.ID, Amount: "30.00"}, res.Msg.Payments[0])
	})

	t.Run("pairwise and stake", func(t *testing.T) {
		pair, err := call[GetPairwiseBalanceRequest, PairwiseBalanceResponse](t, ts, BalanceServiceGetPairwiseBalanceProcedure, alice.token, &GetPairwiseBalanceRequest{UserID: carol.user.ID})
		require.NoError(t, err)
		assert.Equal(t, "30.00", pair.Msg.Amount)

		pair, err = call[GetPairwiseBalanceRequest, PairwiseBalanceResponse](t, ts, BalanceServiceGetPairwiseBalanceProcedure, alice.token, &GetPairwiseBalanceRequest{UserID: bob.user.ID, GroupID: group.ID})
		require.NoError(t, err)
		assert.Equal(t, "0.00", pair.Msg.Amount)

		stake, err := call[GetUserGroupBalanceRequest, UserGroupBalanceResponse](t, ts, BalanceServiceGetUserGroupBalanceProcedure, alice.token, &GetUserGroupBalanceRequest{GroupID: group.ID})
		require.NoError(t, err)
		assert.Equal(t, "USD", stake.Msg.Currency)
		assert.Equal(t, "60.00", stake.Msg.Stake, "settlement does not change stake")
		assert.Equal(t, "30.00", stake.Msg.Outstanding)
	})

	t.Run("dashboard", func(t *testing.T) {
		res, err := call[GetDashboardRequest, DashboardResponse](t, ts, BalanceServiceGetDashboardProcedure, carol.token, &GetDashboardRequest{})
		require.NoError(t, err)
		assert.Equal(t, "carol", res.Msg.User.Username)
		require.Len(t, res.Msg.Groups, 1)
		assert.Equal(t, "-30.00", res.Msg.Groups[0].Stake)
		assert.Equal(t, "-30.00", res.Msg.Groups[0].Outstanding)
		require.Len(t, res.Msg.Balances, 1)
		assert.Equal(t, DashboardBalance{
			GroupID: group.ID, GroupName: "Trip",
			UserID: alice.user.ID, Username: "alice",
			Amount: "-30.00",
		}, res.Msg.Balances[0])
		assert.Empty(t, res.Msg.TotalOwed)
		assert.Equal(t, map[string]string{"USD": "30.00"}, res.Msg.TotalOwes)
		require.Len(t, res.Msg.RecentExpenses, 1)
	})

	t.Run("unsettle", func(t *testing.T) {
		_, err := call[UnsettleSplitRequest, SettleSplitResponse](t, ts, ExpenseServiceUnsettleSplitProcedure, carol.token, &UnsettleSplitRequest{ExpenseID: expense.ID, UserID: bob.user.ID})
		assertCode(t, connect.CodePermissionDenied, err)

		res, err := call[UnsettleSplitRequest, SettleSplitResponse](t, ts, ExpenseServiceUnsettleSplitProcedure, alice.token, &UnsettleSplitRequest{ExpenseID: expense.ID, UserID: bob.user.ID})
		require.NoError(t, err)
		assert.False(t, res.Msg.Split.IsSettled)
		assert.Equal(t, "30.00", res.Msg.Split.Amount)
	})

	t.Run("update and delete", func(t *testing.T) {
		amount := decimal.NewFromInt(60)
		res, err := call[UpdateExpenseRequest, ExpenseResponse](t, ts, ExpenseServiceUpdateExpenseProcedure, alice.token, &UpdateExpenseRequest{ExpenseID: expense.ID, Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, "60.00", res.Msg.Expense.Amount)
		for _, s := range res.Msg.Expense.Splits {
			assert.Equal(t, "20.00", s.Amount)
		}

		res, err = call[UpdateSplitsRequest, ExpenseResponse](t, ts, ExpenseServiceUpdateSplitsProcedure, alice.token, &UpdateSplitsRequest{ExpenseID: expense.ID, SplitWith: []string{bob.user.ID, carol.user.ID}})
		require.NoError(t, err)
		require.Len(t, res.Msg.Expense.Splits, 2)

		_, err = call[DeleteExpenseRequest, SuccessResponse](t, ts, ExpenseServiceDeleteExpenseProcedure, carol.token, &DeleteExpenseRequest{ExpenseID: expense.ID})
		assertCode(t, connect.CodePermissionDenied, err)

		_, err = call[DeleteExpenseRequest, SuccessResponse](t, ts, ExpenseServiceDeleteExpenseProcedure, alice.token, &DeleteExpenseRequest{ExpenseID: expense.ID})
		require.NoError(t, err)

		_, err = call[GetExpenseRequest, ExpenseResponse](t, ts, ExpenseServiceGetExpenseProcedure, alice.token, &GetExpenseRequest{ExpenseID: expense.ID})
		assertCode(t, connect.CodeNotFound, err)
	})

	t.Run("membership and deletion", func(t *testing.T) {
		_, err := call[RenameGroupRequest, GroupResponse](t, ts, GroupServiceRenameGroupProcedure, alice.token, &RenameGroupRequest{GroupID: group.ID, Name: "Road Trip"})
		require.NoError(t, err)

		_, err = call[RemoveMemberRequest, SuccessResponse](t, ts, GroupServiceRemoveMemberProcedure, alice.token, &RemoveMemberRequest{GroupID: group.ID, UserID: carol.user.ID})
		require.NoError(t, err)

		list, err := call[ListGroupsRequest, ListGroupsResponse](t, ts, GroupServiceListGroupsProcedure, carol.token, &ListGroupsRequest{})
		require.NoError(t, err)
		assert.Empty(t, list.Msg.Groups)

		list, err = call[ListGroupsRequest, ListGroupsResponse](t, ts, GroupServiceListGroupsProcedure, bob.token, &ListGroupsRequest{})
		require.NoError(t, err)
		require.Len(t, list.Msg.Groups, 1)
		assert.Equal(t, "Road Trip", list.Msg.Groups[0].Name)

		_, err = call[DeleteGroupRequest, SuccessResponse](t, ts, GroupServiceDeleteGroupProcedure, bob.token, &DeleteGroupRequest{GroupID: group.ID})
		assertCode(t, connect.CodePermissionDenied, err)

		_, err = call[DeleteGroupRequest, SuccessResponse](t, ts, GroupServiceDeleteGroupProcedure, alice.token, &DeleteGroupRequest{GroupID: group.ID})
		require.NoError(t, err)

		_, err = call[GetGroupRequest, GroupViewResponse](t, ts, GroupServiceGetGroupProcedure, alice.token, &GetGroupRequest{GroupID: group.ID})
		assertCode(t, connect.CodeNotFound, err)
	})
}

func TestValidationErrors(t *testing.T) {
	ts := setupTestServer(t)
	alice := register(t, ts, "alice")

	_, err := call[CreateGroupRequest, GroupResponse](t, ts, GroupServiceCreateGroupProcedure, alice.token, &CreateGroupRequest{Name: ""})
	assertCode(t, connect.CodeInvalidArgument, err)

	_, err = call[CreateGroupRequest, GroupResponse](t, ts, GroupServiceCreateGroupProcedure, alice.token, &CreateGroupRequest{Name: "Trip", Currency: "EURO"})
	assertCode(t, connect.CodeInvalidArgument, err)
	assert.True(t, strings.Contains(err.Error(), "Currency"), err.Error())

	res, err := call[CreateGroupRequest, GroupResponse](t, ts, GroupServiceCreateGroupProcedure, alice.token, &CreateGroupRequest{Name: "Tokyo", Currency: "jpy"})
	require.NoError(t, err)
	assert.Equal(t, "JPY", res.Msg.Group.Currency)
}
