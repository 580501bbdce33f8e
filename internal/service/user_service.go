package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"collabforge/internal/model"
	"collabforge/internal/repository"
	"collabforge/pkg/logger"
)

const minPasswordLength = 6

var validate = validator.New()

// ProfileUpdate changes public profile fields. Nil fields are kept.
type ProfileUpdate struct {
	Username  *string
	Bio       *string
	Interests *string
}

// ContactsUpdate changes contact fields and their visibility. Nil fields are kept.
type ContactsUpdate struct {
	Email        *string
	Phone        *string
	GithubURL    *string
	LinkedinURL  *string
	ShowEmail    *bool
	ShowPhone    *bool
	ShowGithub   *bool
	ShowLinkedin *bool
}

type UserService struct {
	users repository.UserRepositoryInterface
}

func NewUserService(users repository.UserRepositoryInterface) *UserService {
	return &UserService{users: users}
}

// Create registers a user with a bcrypt password hash. Email is shown to
// teammates by default, other contact fields are hidden.
func (s *UserService) Create(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hash),
		ShowEmail:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info().Str("user_id", user.ID.String()).Msg("user created")
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, ErrUsernameRequired
		}
		fields["username"] = username
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
	}
	if in.Interests != nil {
		fields["interests"] = *in.Interests
	}
	return s.apply(ctx, id, fields)
}

func (s *UserService) UpdateContacts(ctx context.Context, id uuid.UUID, in ContactsUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		existing, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrEmailTaken
		}
		fields["email"] = email
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.GithubURL != nil {
		fields["github_url"] = strings.TrimSpace(*in.GithubURL)
	}
	if in.LinkedinURL != nil {
		fields["linkedin_url"] = strings.TrimSpace(*in.LinkedinURL)
	}
	if in.ShowEmail != nil {
		fields["show_email"] = *in.ShowEmail
	}
	if in.ShowPhone != nil {
		fields["show_phone"] = *in.ShowPhone
	}
	if in.ShowGithub != nil {
		fields["show_github"] = *in.ShowGithub
	}
	if in.ShowLinkedin != nil {
		fields["show_linkedin"] = *in.ShowLinkedin
	}
	return s.apply(ctx, id, fields)
}

func (s *UserService) apply(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*model.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.Updates(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}
