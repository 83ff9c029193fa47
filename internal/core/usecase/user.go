package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
)

const minPasswordLength = 6

// UserServiceArgs contains the mandatory arguments for the UserService.
type UserServiceArgs struct {
	// Repository is the repository for persistance operations.
	Repository ports.UserRepository

	// Tokens signs bearer tokens on successful authentication.
	Tokens ports.TokenIssuer
}

// UserServiceOptArgs are the optional arguments for building a UserService.
type UserServiceOptArgs = func(*UserService)

// WithHashParams overrides the argon2id parameters. Cheap parameters make tests fast.
func WithHashParams(params *argon2id.Params) UserServiceOptArgs {
	return func(s *UserService) {
		s.hashParams = params
	}
}

// NewUserService creates a new UserService.
func NewUserService(args UserServiceArgs, optArgs ...UserServiceOptArgs) *UserService {
	s := &UserService{repository: args.Repository, tokens: args.Tokens, hashParams: argon2id.DefaultParams}
	for _, opt := range optArgs {
		opt(s)
	}
	return s
}

// UserService gathers the functionality around the user-lifecycle
type UserService struct {
	repository ports.UserRepository
	tokens     ports.TokenIssuer
	hashParams *argon2id.Params
}

// Register creates a user. The role defaults to resident.
func (s *UserService) Register(ctx context.Context, args model.RegisterUserArgs) (*model.User, error) {
	username := strings.TrimSpace(args.Username)
	email := model.NormalizeEmail(args.Email)
	role := args.Role
	if role == "" {
		role = model.RoleResident
	}
	switch {
	case len(username) < 3 || len(username) > 30:
		return nil, fmt.Errorf("%w: username must be between 3 and 30 characters", model.ErrInvalidArgument)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: invalid email", model.ErrInvalidArgument)
	case len(args.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidArgument, minPasswordLength)
	case !role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidArgument, role)
	}

	hash, err := argon2id.CreateHash(args.Password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("error creating password hash: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Profile:      trimProfile(args.Profile),
	}
	if err := s.repository.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error saving user in repository: %w", err)
	}
	return user, nil
}

// EnsureAdmin registers the admin described by args unless a user with that email already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, args model.RegisterUserArgs) (*model.User, error) {
	existing, err := s.repository.GetUserByEmail(ctx, model.NormalizeEmail(args.Email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("error looking up admin: %w", err)
	}
	args.Role = model.RoleAdmin
	return s.Register(ctx, args)
}

// Authenticate checks the credentials and issues a bearer token.
func (s *UserService) Authenticate(ctx context.Context, args model.AuthenticateArgs) (*model.AuthenticateResponse, error) {
	user, err := s.repository.GetUserByEmail(ctx, model.NormalizeEmail(args.Email))
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown email or wrong password", model.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	match, err := argon2id.ComparePasswordAndHash(args.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error comparing password hash: %w", err)
	}
	if !match {
		return nil, fmt.Errorf("%w: unknown email or wrong password", model.ErrUnauthenticated)
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &model.AuthenticateResponse{User: *user, Token: token}, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repository.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user [%s]: %w", id, err)
	}
	return user, nil
}

// ListUsers lists users matching the arguments.
func (s *UserService) ListUsers(ctx context.Context, args model.ListUsersArgs) ([]model.User, error) {
	users, err := s.repository.ListUsers(ctx, ports.ListUsersQuery{
		Role:   args.Role,
		Limit:  args.Limit,
		Offset: args.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing users on the repository: %w", err)
	}
	return users, nil
}

func trimProfile(p model.Profile) model.Profile {
	return model.Profile{
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Phone:     strings.TrimSpace(p.Phone),
		Address:   strings.TrimSpace(p.Address),
	}
}
