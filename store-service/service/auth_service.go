package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/store"
)

const tokenTTL = 12 * time.Hour

// UserStore is the slice of the document store the auth service needs.
type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) (string, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type AuthService struct {
	users  UserStore
	secret []byte
}

// creates a new instance of AuthService
func NewAuthService(users UserStore, secret string) *AuthService {
	return &AuthService{users: users, secret: []byte(secret)}
}

// Register creates a user account with the default role and returns a
// signed bearer token for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (string, error) {
	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if existing != nil {
		return "", apperr.BadRequest("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	now := time.Now()
	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.users.InsertUser(ctx, user); err != nil {
		// The unique email index closes the check-then-insert window.
		if store.IsDuplicate(err) {
			return "", apperr.BadRequest("Email already registered")
		}
		return "", err
	}

	log.WithField("email", email).Info("Registered new user")
	return s.issueToken(email, models.RoleUser)
}

// Login verifies the credentials and returns a signed bearer token. Unknown
// email and wrong password fail identically so neither is leaked.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperr.BadRequest("Invalid credentials")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperr.BadRequest("Invalid credentials")
	}

	return s.issueToken(email, user.Role)
}

// Authenticate verifies a bearer token and resolves it to a known user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Identity, error) {
	credentialsErr := apperr.Unauthorized("Could not validate credentials")

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, credentialsErr
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, credentialsErr
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return nil, credentialsErr
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleUser
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, credentialsErr
	}

	return &Identity{UserID: user.ID.Hex(), Email: email, Role: role}, nil
}

func (s *AuthService) issueToken(email, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  email,
		"role": role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
