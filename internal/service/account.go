// Package service provides business logic implementations.
// Services never call each other; every operation is one unit of work
// against the ledger store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/pkg/session"
	"tournament-ledger/internal/repository"
)

// AdminID is the fixed id of the seeded admin account.
const AdminID int64 = 1000000

// Sessions issues and revokes session tokens.
type Sessions interface {
	Issue(userID int64) (string, *session.Claims, error)
	Revoke(ctx context.Context, token string) error
}

// AuthResult is an authenticated user with a fresh session token.
type AuthResult struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterInput holds the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    string
}

// ProfileUpdate is a partial profile change. Nil fields are left as they are.
type ProfileUpdate struct {
	Username  *string
	Email     *string
	Phone     *string
	Password  *string
	AvatarURL *string
}

// AdminSeed describes the admin account created on first start.
type AdminSeed struct {
	Username       string
	Email          string
	Password       string
	Phone          string
	InitialBalance int64
}

// AccountService handles registration, login and profile management.
type AccountService struct {
	store      repository.Store
	locks      *Locks
	sessions   Sessions
	bcryptCost int
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(store repository.Store, locks *Locks, sessions Sessions, bcryptCost int) *AccountService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		store:      store,
		locks:      locks,
		sessions:   sessions,
		bcryptCost: bcryptCost,
	}
}

// ValidatePhone checks that phone is exactly 10 ASCII digits.
func ValidatePhone(phone string) error {
	if len(phone) != 10 {
		return model.ErrInvalidPhone
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return model.ErrInvalidPhone
		}
	}
	return nil
}

func (s *AccountService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Register creates a non-admin account with a zero balance and opens a session.
// Checks run in order: phone format, username taken, phone taken.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, model.ErrMissingField
	}
	if err := ValidatePhone(in.Phone); err != nil {
		return nil, err
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		if err := checkUsernameFree(ctx, tx, in.Username, 0); err != nil {
			return err
		}
		if err := checkPhoneFree(ctx, tx, in.Phone, 0); err != nil {
			return err
		}
		var err error
		user, err = tx.CreateUser(ctx, &model.User{
			Username: in.Username,
			Email:    strings.TrimSpace(in.Email),
			Password: hashed,
			Phone:    in.Phone,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Str("operation", "register").
		Msg("User registered")

	return s.openSession(user)
}

// Login authenticates by username or phone. One user's username may equal
// another user's phone; the password decides which of them signs in, and the
// username match is tried first. Unknown users and wrong passwords produce
// the same model.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, credential, password string) (*AuthResult, error) {
	candidates, err := s.store.FindUsersByCredential(ctx, strings.TrimSpace(credential))
	if err != nil {
		return nil, err
	}
	for _, user := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil {
			return s.openSession(user)
		}
	}
	return nil, model.ErrInvalidCredentials
}

func (s *AccountService) openSession(user *model.User) (*AuthResult, error) {
	token, claims, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the session token.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// GetUser retrieves a user by ID.
func (s *AccountService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.store.GetUser(ctx, userID)
}

// ListUsers returns every non-admin user.
func (s *AccountService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.store.ListUsers(ctx, false)
}

// UpdateProfile merges the non-nil fields of upd into the user's profile.
// The balance and admin flag can never change through this path.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*model.User, error) {
	if upd.Username != nil {
		trimmed := strings.TrimSpace(*upd.Username)
		if trimmed == "" {
			return nil, model.ErrMissingField
		}
		upd.Username = &trimmed
	}
	if upd.Phone != nil {
		if err := ValidatePhone(*upd.Phone); err != nil {
			return nil, err
		}
	}
	var hashed string
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, model.ErrMissingField
		}
		var err error
		if hashed, err = s.hash(*upd.Password); err != nil {
			return nil, err
		}
	}

	var updated *model.User
	err := s.locks.WithUser(ctx, userID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			user, err := tx.GetUserForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			if upd.Username != nil && *upd.Username != user.Username {
				if err := checkUsernameFree(ctx, tx, *upd.Username, userID); err != nil {
					return err
				}
				user.Username = *upd.Username
			}
			if upd.Phone != nil && *upd.Phone != user.Phone {
				if err := checkPhoneFree(ctx, tx, *upd.Phone, userID); err != nil {
					return err
				}
				user.Phone = *upd.Phone
			}
			if upd.Email != nil {
				user.Email = strings.TrimSpace(*upd.Email)
			}
			if upd.AvatarURL != nil {
				user.AvatarURL = *upd.AvatarURL
			}
			if upd.Password != nil {
				user.Password = hashed
			}
			updated, err = tx.UpdateUser(ctx, user)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Str("operation", "update_profile").
		Msg("Profile updated")
	return updated, nil
}

// DeleteUser permanently removes a user. Their transactions and tournament
// entries stay in place.
func (s *AccountService) DeleteUser(ctx context.Context, adminID, userID int64) error {
	err := s.locks.WithUser(ctx, userID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			return tx.DeleteUser(ctx, userID)
		})
	})
	if err != nil {
		return err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("target_id", userID).
		Str("operation", "delete_user").
		Msg("Admin operation executed")
	return nil
}

// EnsureAdmin creates the admin account with id AdminID unless it exists.
// Returns whether the account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	if _, err := s.store.GetUser(ctx, AdminID); err == nil {
		return false, nil
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return false, err
	}

	if seed.Username == "" || seed.Password == "" {
		return false, fmt.Errorf("admin seed needs a username and password: %w", model.ErrMissingField)
	}
	if err := ValidatePhone(seed.Phone); err != nil {
		return false, err
	}
	hashed, err := s.hash(seed.Password)
	if err != nil {
		return false, err
	}

	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.CreateUser(ctx, &model.User{
			ID:            AdminID,
			Username:      seed.Username,
			Email:         seed.Email,
			Password:      hashed,
			WalletBalance: max(seed.InitialBalance, 0),
			Phone:         seed.Phone,
			IsAdmin:       true,
		})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed admin: %w", err)
	}

	log.Info().
		Int64("user_id", AdminID).
		Str("username", seed.Username).
		Msg("Admin account seeded")
	return true, nil
}

func checkUsernameFree(ctx context.Context, tx repository.Tx, username string, self int64) error {
	existing, err := tx.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return model.ErrUsernameTaken
	}
	return nil
}

func checkPhoneFree(ctx context.Context, tx repository.Tx, phone string, self int64) error {
	existing, err := tx.GetUserByPhone(ctx, phone)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return model.ErrPhoneTaken
	}
	return nil
}
