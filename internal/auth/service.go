package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"scci_dashboard/internal/apperr"
	"scci_dashboard/internal/models"
)

const bcryptCost = 10

// UserStore persists users; FindUserByEmail returns nil when absent.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

type LoginResult struct {
	Token string    `json:"token"`
	User  Principal `json:"user"`
}

type Service struct {
	users  UserStore
	tokens *Tokens
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewService(users UserStore, tokens *Tokens) *Service {
	hash, _ := bcrypt.GenerateFromPassword([]byte("scci-dummy-password"), bcryptCost)
	return &Service{users: users, tokens: tokens, dummyHash: hash}
}

// Register creates a user; the email must be new and the role valid.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Principal, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	role, ok := ParseRole(in.Role)
	if !ok {
		return nil, apperr.Validation("Invalid role")
	}

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash), Role: string(role)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal(err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return &Principal{UserID: user.ID, Email: user.Email, Role: role}, nil
}

// Login verifies the credentials and issues a token. Unknown email and
// wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := apperr.Unauthorized("Invalid credentials")

	user, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResult{
		Token: token,
		User:  Principal{UserID: user.ID, Email: user.Email, Role: Role(user.Role)},
	}, nil
}

// EnsureAdmin creates an admin account for email unless one exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = s.Register(ctx, RegisterInput{Email: email, Password: password, Role: string(RoleAdmin)})
	return err
}
