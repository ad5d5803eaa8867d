package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"triplog/internal/models"
	"triplog/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ExternalProfile is the identity resolved by the OAuth provider.
type ExternalProfile struct {
	MemberID        string
	Nickname        string
	Email           string
	ProfileImageURL string
}

// ExternalVerifier exchanges a provider access token for the member profile.
// The provider is an external collaborator behind this narrow interface.
type ExternalVerifier interface {
	Verify(ctx context.Context, accessToken string) (*ExternalProfile, error)
}

// UserService manages accounts: signup, credential checks, external-provider
// login, and profile maintenance.
type UserService struct {
	userRepo repository.UserRepository
	verifier ExternalVerifier
}

// NewUserService wires a UserService. verifier may be nil, which disables
// external-provider login.
func NewUserService(userRepo repository.UserRepository, verifier ExternalVerifier) *UserService {
	return &UserService{userRepo: userRepo, verifier: verifier}
}

type SignupInput struct {
	Nickname string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID          uint
	Nickname        string
	Bio             string
	ProfileImageURL string
}

// Signup registers a new local account with a bcrypt-hashed password.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if in.Nickname == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Nickname, email, and password are required")
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.NewValidationError("Email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByNickname(ctx, in.Nickname); err == nil {
		return nil, models.NewValidationError("Nickname is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Nickname: in.Nickname,
		Email:    in.Email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies local credentials and returns the account.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if user.Password == "" {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// LoginExternal resolves a provider access token to a member profile and
// finds or creates the matching account.
func (s *UserService) LoginExternal(ctx context.Context, accessToken string) (*models.User, error) {
	if s.verifier == nil {
		return nil, models.NewValidationError("external login is not configured")
	}
	profile, err := s.verifier.Verify(ctx, accessToken)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid provider token")
	}

	user, err := s.userRepo.GetByExternalMemberID(ctx, profile.MemberID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	nickname := profile.Nickname
	if nickname == "" {
		nickname = "traveler_" + profile.MemberID
	}
	if _, err := s.userRepo.GetByNickname(ctx, nickname); err == nil {
		nickname = fmt.Sprintf("%s_%s", nickname, profile.MemberID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := profile.Email
	if email == "" {
		email = profile.MemberID + "@external.triplog.dev"
	}

	memberID := profile.MemberID
	user = &models.User{
		Nickname:         nickname,
		Email:            email,
		ExternalMemberID: &memberID,
		ProfileImageURL:  profile.ProfileImageURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

func (s *UserService) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	user, err := s.userRepo.GetByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("user", nickname)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user", in.UserID)
	}

	const maxBioLen = 500
	const maxNicknameLen = 30

	if in.Nickname != "" && in.Nickname != user.Nickname {
		if len(in.Nickname) > maxNicknameLen {
			return nil, models.NewValidationError("Nickname too long (max 30 characters)")
		}
		if strings.TrimSpace(in.Nickname) == "" {
			return nil, models.NewValidationError("Nickname cannot be blank")
		}
		if _, err := s.userRepo.GetByNickname(ctx, in.Nickname); err == nil {
			return nil, models.NewValidationError("Nickname is already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Nickname = in.Nickname
	}
	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}
	if in.ProfileImageURL != "" {
		user.ProfileImageURL = in.ProfileImageURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
