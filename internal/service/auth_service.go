package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
)

// CookieConfig controls the session cookie set on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// UserGetter loads a user by ID.
type UserGetter interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         UserGetter
	ledger        *ledger.Ledger
	cookie        CookieConfig
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users UserGetter, l *ledger.Ledger, cookie CookieConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		ledger:        l,
		cookie:        cookie,
		logger:        logger,
	}
}

// Register creates a new user account and starts a session.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	s.logger.Info("Register request", "username", req.Msg.Username)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Username, req.Msg.Email, req.Msg.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameExists), errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidUsername):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		s.logger.Error("Registration failed", "username", req.Msg.Username, "error", err)
		return nil, connect.NewError(connect.CodeInternal, errInternal)
	}

	res, err := s.startSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	return res, nil
}

// Login authenticates a user by username or email and returns a JWT token.
// The token is also set as an HttpOnly session cookie.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	s.logger.Info("Login request", "login", req.Msg.Login)

	if err := validateRequest(req.Msg); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Login, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "login", req.Msg.Login, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	res, err := s.startSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) startSession(user *models.User) (*connect.Response[AuthResponse], error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, errInternal)
	}

	res := connect.NewResponse(&AuthResponse{Token: token, User: selfUser(user)})
	s.setCookie(res.Header(), token, int(s.jwtManager.TokenDuration().Seconds()))
	return res, nil
}

func (s *AuthService) setCookie(h http.Header, value string, maxAge int) {
	if s.cookie.Name == "" {
		return
	}
	c := &http.Cookie{
		Name:     s.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	h.Add("Set-Cookie", c.String())
}

// Logout clears the session cookie. Tokens are stateless, so a client holding
// a bearer token simply discards it.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[SuccessResponse], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))
	res := connect.NewResponse(&SuccessResponse{Success: true, Message: "Logged out"})
	s.setCookie(res.Header(), "", -1)
	return res, nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[UserResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		// The account behind a still-valid token is gone.
		s.logger.Warn("GetCurrentUser failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}

	return connect.NewResponse(&UserResponse{User: selfUser(user)}), nil
}

// SearchUsers finds users by username for adding them to groups.
func (s *AuthService) SearchUsers(ctx context.Context, req *connect.Request[SearchUsersRequest]) (*connect.Response[SearchUsersResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	users, err := s.ledger.SearchUsers(ctx, req.Msg.Query)
	if err != nil {
		return nil, toConnectError(s.logger, "SearchUsers", err)
	}

	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.ID != userID {
			out = append(out, publicUser(u))
		}
	}
	return connect.NewResponse(&SearchUsersResponse{Users: out}), nil
}
