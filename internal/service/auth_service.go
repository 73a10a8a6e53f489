package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/internal/repository"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

// SessionKeyPrefix namespaces persisted session records.
const SessionKeyPrefix = "hms_user:"

type authStudentRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type authRoomRepository interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

// SessionStore persists serialized session records with a TTL.
type SessionStore interface {
	Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	AdminEmail        string
}

// AuthService resolves a role and email into a session. There is no credential check.
type AuthService struct {
	students  authStudentRepository
	rooms     authRoomRepository
	sessions  SessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(students authStudentRepository, rooms authRoomRepository, sessions SessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	if config.AdminEmail == "" {
		config.AdminEmail = "admin@hms.com"
	}
	return &AuthService{students: students, rooms: rooms, sessions: sessions, validator: validate, logger: logger, config: config}
}

// Login resolves the identity for the selected role, persists a session record and issues a token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	var user models.User
	switch req.Role {
	case models.RoleAdmin:
		user = models.User{ID: models.AdminUserID, Email: s.config.AdminEmail, Role: models.RoleAdmin}
	case models.RoleStudent:
		if req.Email == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email is required for student login")
		}
		student, err := s.students.FindByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, repository.ErrStudentNotFound) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return nil, translateStoreError(err, "failed to look up student")
		}
		user = models.StudentUser(student.ID, student.Email)
	}

	session := models.Session{ID: uuid.NewString(), User: user}
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode session")
	}
	if err := s.sessions.Save(ctx, SessionKeyPrefix+session.ID, payload, s.config.AccessTokenExpiry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	token, err := s.generateAccessToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        user,
	}, nil
}

// Resume reports the session state for a token. Missing, expired or corrupt
// sessions resolve to anonymous; corrupt records are deleted.
func (s *AuthService) Resume(ctx context.Context, token string) (*models.SessionStatus, error) {
	anonymous := &models.SessionStatus{State: models.SessionAnonymous}
	if token == "" {
		return anonymous, nil
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return anonymous, nil
	}
	session, err := s.loadSession(ctx, claims.ID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrUnauthorized.Code {
			return anonymous, nil
		}
		return nil, err
	}
	return &models.SessionStatus{State: models.SessionAuthenticated, User: &session.User}, nil
}

// Authenticate validates a token and requires its session record to still be live.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadSession(ctx, claims.ID); err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout deletes the session record. Unknown sessions are ignored.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, SessionKeyPrefix+sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end session")
	}
	s.logger.Info("user logged out", zap.String("session_id", sessionID))
	return nil
}

// Profile returns the caller's own view.
func (s *AuthService) Profile(ctx context.Context, user models.User) (*dto.Profile, error) {
	profile := &dto.Profile{User: user}
	if user.Role != models.RoleStudent || user.StudentID == "" {
		return profile, nil
	}
	student, err := s.students.FindByID(ctx, user.StudentID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load profile")
	}
	profile.Student = student
	if student.HasRoom() && s.rooms != nil {
		room, err := s.rooms.FindByID(ctx, *student.RoomID)
		if err == nil {
			profile.Room = room
		} else if !errors.Is(err, repository.ErrRoomNotFound) {
			return nil, translateStoreError(err, "failed to load room")
		}
	}
	return profile, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// loadSession reads and decodes a session record. Unusable records are deleted
// and reported as unauthorized.
func (s *AuthService) loadSession(ctx context.Context, sessionID string) (*models.Session, error) {
	key := SessionKeyPrefix + sessionID
	raw, err := s.sessions.Load(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil || session.ID != sessionID || !session.User.Role.Valid() {
		s.discardSession(ctx, key, "malformed session record")
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session invalid")
	}

	if session.User.Role == models.RoleStudent {
		if _, err := s.students.FindByID(ctx, session.User.StudentID); err != nil {
			if errors.Is(err, repository.ErrStudentNotFound) {
				s.discardSession(ctx, key, "session student no longer exists")
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session invalid")
			}
			return nil, translateStoreError(err, "failed to load session student")
		}
	}
	return &session, nil
}

func (s *AuthService) discardSession(ctx context.Context, key, reason string) {
	s.logger.Warn("discarding session", zap.String("key", key), zap.String("reason", reason))
	if err := s.sessions.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete session", zap.String("key", key), zap.Error(err))
	}
}

func (s *AuthService) generateAccessToken(session models.Session) (string, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:    session.User.ID,
		Role:      session.User.Role,
		Email:     session.User.Email,
		StudentID: session.User.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.config.Issuer,
			Subject:   session.User.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
