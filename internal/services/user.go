package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"devqa/internal/auth"
	"devqa/internal/models"
	"devqa/internal/utils"

	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt 拒绝超过 72 字节的密码
	maxBioLength      = 500
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UpdateProfileInput changes only non-nil fields. NewPassword requires
// CurrentPassword.
type UpdateProfileInput struct {
	Username        *string
	Email           *string
	Bio             *string
	CurrentPassword string
	NewPassword     string
}

// Profile is a user page: the user, what they posted and their reputation.
type Profile struct {
	*models.User
	Reputation int64 `json:"reputation"`
}

type UserService struct {
	db       *gorm.DB
	issuer   *auth.Issuer
	revoker  auth.Revoker
	activity *ActivityService
}

func NewUserService(db *gorm.DB, issuer *auth.Issuer, revoker auth.Revoker) *UserService {
	return &UserService{
		db:       db,
		issuer:   issuer,
		revoker:  revoker,
		activity: NewActivityService(db),
	}
}

func passwordProblems(password string) []string {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return []string{fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	if len(password) > maxPasswordLength {
		return []string{fmt.Sprintf("password must be at most %d bytes", maxPasswordLength)}
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := utils.NormalizeEmail(in.Email)

	var details []string
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		details = append(details, fmt.Sprintf("username must be %d to %d characters", minUsernameLength, maxUsernameLength))
	}
	if !utils.IsEmail(email) {
		details = append(details, "email is not valid")
	}
	details = append(details, passwordProblems(in.Password)...)
	if len(details) > 0 {
		return nil, invalid("invalid registration", details...)
	}

	db := s.db.WithContext(ctx)
	if details, err := s.conflicts(db, 0, &username, &email); err != nil {
		return nil, err
	} else if len(details) > 0 {
		return nil, invalid("user already exists", details...)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Username: username, Email: email, Password: hash}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{User: &user, Token: token}, nil
}

// Login never tells the caller which of email or password was wrong.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err != nil || !utils.CheckPasswordHash(password, user.Password) {
		return nil, invalid("invalid email or password")
	}

	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{User: &user, Token: token}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return ErrUnauthorized
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Me returns the caller's own profile including email.
func (s *UserService) Me(ctx context.Context, userID uint) (*Profile, error) {
	return s.profile(ctx, userID, true)
}

// PublicProfile returns any user's profile without private fields.
func (s *UserService) PublicProfile(ctx context.Context, userID uint) (*Profile, error) {
	return s.profile(ctx, userID, false)
}

func (s *UserService) profile(ctx context.Context, userID uint, private bool) (*Profile, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Preload("Questions", newestFirst).
		Preload("Questions.Tags").
		Preload("Answers", newestFirst).
		Preload("Answers.Question", selectQuestionStub).
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !private {
		user.Email = ""
	}
	if err := fillQuestionCounts(db, user.Questions); err != nil {
		return nil, err
	}
	if err := fillAnswerTotals(db, user.Answers); err != nil {
		return nil, err
	}

	reputation, err := s.activity.Reputation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: &user, Reputation: reputation}, nil
}

// Get loads a bare user row; used by the auth guard.
func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	db := s.db.WithContext(ctx)
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	var details []string
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
			details = append(details, fmt.Sprintf("username must be %d to %d characters", minUsernameLength, maxUsernameLength))
		}
		in.Username = &username
		updates["username"] = username
	}
	if in.Email != nil {
		email := utils.NormalizeEmail(*in.Email)
		if !utils.IsEmail(email) {
			details = append(details, "email is not valid")
		}
		in.Email = &email
		updates["email"] = email
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			details = append(details, fmt.Sprintf("bio must be at most %d characters", maxBioLength))
		}
		updates["bio"] = bio
	}
	if in.NewPassword != "" {
		details = append(details, passwordProblems(in.NewPassword)...)
		if !utils.CheckPasswordHash(in.CurrentPassword, user.Password) {
			details = append(details, "current password is incorrect")
		}
	}
	if len(details) > 0 {
		return nil, invalid("invalid profile", details...)
	}

	conflicts, err := s.conflicts(db, userID, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, invalid("user already exists", conflicts...)
	}

	if in.NewPassword != "" {
		hash, err := utils.HashPassword(in.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = hash
	}

	if len(updates) > 0 {
		if err := db.Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return s.Get(ctx, userID)
}

// SetAvatar stores the public location of a freshly uploaded avatar.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, location string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", location).Error; err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return s.Get(ctx, userID)
}

// List returns the public user directory, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).
		Select("id", "username", "avatar", "bio", "created_at").
		Scopes(newestFirst).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// conflicts reports which of username and email already belong to a user
// other than selfID.
func (s *UserService) conflicts(db *gorm.DB, selfID uint, username, email *string) ([]string, error) {
	var details []string
	check := func(column, value, detail string) error {
		var count int64
		if err := db.Model(&models.User{}).Where(column+" = ? AND id <> ?", value, selfID).Count(&count).Error; err != nil {
			return fmt.Errorf("check %s: %w", column, err)
		}
		if count > 0 {
			details = append(details, detail)
		}
		return nil
	}
	if email != nil {
		if err := check("email", *email, "email already used"); err != nil {
			return nil, err
		}
	}
	if username != nil {
		if err := check("username", *username, "username already used"); err != nil {
			return nil, err
		}
	}
	return details, nil
}
