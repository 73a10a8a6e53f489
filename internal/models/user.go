package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// AdminUserID is the fixed identity of the administrator.
const AdminUserID = "admin01"

// User is the resolved identity of a session.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	StudentID string   `json:"student_id,omitempty"`
}

// StudentUser builds the session identity bound to a student.
func StudentUser(studentID, email string) User {
	return User{ID: "user-" + studentID, Email: email, Role: RoleStudent, StudentID: studentID}
}

// SessionState is the server view of the client session state machine.
type SessionState string

const (
	SessionAnonymous     SessionState = "anonymous"
	SessionAuthenticated SessionState = "authenticated"
)

// Session is the persisted session record.
type Session struct {
	ID   string `json:"id"`
	User User   `json:"user"`
}

// SessionStatus answers a session resume.
type SessionStatus struct {
	State SessionState `json:"state"`
	User  *User        `json:"user,omitempty"`
}

// LoginRequest selects a role and an identity. There is no credential check.
type LoginRequest struct {
	Email string   `json:"email" validate:"omitempty,email"`
	Role  UserRole `json:"role" validate:"required,oneof=admin student"`
}

// LoginResponse returns the issued token and the resolved user.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// JWTClaims represents the JWT payload for access tokens. ID (jti) is the session ID.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	StudentID string   `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
