package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

// TokenIssuer is satisfied by utils.TokenManager.
type TokenIssuer interface {
	GenerateToken(userID uint, email string) (string, error)
}

// UserView is the public shape of an account, with the effective role.
type UserView struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	Points   int             `json:"points"`
}

func newUserView(u *models.User) UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     effectiveRole(u),
		Points:   u.Points,
	}
}

type AuthResult struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}

type AuthService struct {
	db     *gorm.DB
	tokens TokenIssuer
	google GoogleVerifier
}

func NewAuthService(db *gorm.DB, tokens TokenIssuer, google GoogleVerifier) *AuthService {
	return &AuthService{db: db, tokens: tokens, google: google}
}

func (s *AuthService) Register(username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if n := utf8.RuneCountInString(username); n < 2 || n > 50 {
		return nil, NewValidation("Username must be 2-50 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, NewValidation("Please provide a valid email")
	}
	if n := len(password); n < 6 || n > 100 {
		return nil, NewValidation("Password must be 6-100 characters")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, NewInternal(err)
	}
	if count > 0 {
		return nil, NewValidation("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewInternal(err)
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleLearner,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidation("Email already registered")
		}
		return nil, NewInternal(err)
	}
	return s.issue(&user)
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, NewValidation("Email and password are required")
	}
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorized("Invalid credentials")
		}
		return nil, NewInternal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), passwordBytes(password)) != nil {
		return nil, NewUnauthorized("Invalid credentials")
	}
	return s.issue(&user)
}

func (s *AuthService) Me(userID uint) (*UserView, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("User not found")
		}
		return nil, NewInternal(err)
	}
	view := newUserView(&user)
	return &view, nil
}

// GoogleLogin links a verified Google identity to an account by email,
// creating a learner when none exists.
func (s *AuthService) GoogleLogin(ctx context.Context, rawToken string) (*AuthResult, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, NewValidation("Google credential is required")
	}
	if s.google == nil {
		return nil, NewUpstream("Google login is not available", errGoogleNotConfigured)
	}
	identity, err := s.google.Verify(ctx, rawToken)
	if err != nil {
		if errors.Is(err, errGoogleNotConfigured) {
			return nil, NewUpstream("Google login is not available", err)
		}
		return nil, NewUnauthorized("Invalid Google credential")
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, NewUnauthorized("Google account has no email")
	}
	// linking by email is only safe once Google has verified it
	if !identity.EmailVerified {
		return nil, NewUnauthorized("Google email is not verified")
	}

	var user models.User
	err = s.db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.GoogleID == nil && identity.Subject != "" {
			sub := identity.Subject
			if err := s.db.Model(&user).Update("google_id", sub).Error; err != nil {
				return nil, NewInternal(err)
			}
			user.GoogleID = &sub
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createGoogleUser(identity, email)
		if err != nil {
			return nil, err
		}
	default:
		return nil, NewInternal(err)
	}
	return s.issue(&user)
}

func (s *AuthService) createGoogleUser(identity *GoogleIdentity, email string) (models.User, error) {
	// random secret nobody knows, so password login stays impossible
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return models.User{}, NewInternal(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(buf)), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, NewInternal(err)
	}
	name := strings.TrimSpace(identity.Name)
	if utf8.RuneCountInString(name) < 2 {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if utf8.RuneCountInString(name) > 50 {
		name = string([]rune(name)[:50])
	}
	user := models.User{
		Username: name,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleLearner,
	}
	if identity.Subject != "" {
		sub := identity.Subject
		user.GoogleID = &sub
	}
	if err := s.db.Create(&user).Error; err != nil {
		return models.User{}, NewInternal(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, NewInternal(err)
	}
	return &AuthResult{User: newUserView(user), Token: token}, nil
}

// bcrypt rejects inputs over 72 bytes; only the prefix is significant anyway.
func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return b
}
