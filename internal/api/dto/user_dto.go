package dto

import (
	"time"

	"github.com/spec-kit/medical-portal/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	NationalID string `json:"national_id"`
}

// AdminLoginRequest payload for admin login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserUpdateRequest carries the fields an admin may change.
type UserUpdateRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID               string            `json:"id"`
	FullName         string            `json:"full_name"`
	NationalID       string            `json:"national_id"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Status           domain.UserStatus `json:"status"`
	RequestIDs       []string          `json:"request_ids"`
	RegistrationDate time.Time         `json:"registration_date"`
	LastLogin        *time.Time        `json:"last_login,omitempty"`
	LastUpdated      *time.Time        `json:"last_updated,omitempty"`
	BlockedDate      *time.Time        `json:"blocked_date,omitempty"`
	UnblockedDate    *time.Time        `json:"unblocked_date,omitempty"`
}

// UserDetailsResponse adds request counts to a user.
type UserDetailsResponse struct {
	UserResponse
	RequestsCount     int        `json:"requests_count"`
	PendingRequests   int        `json:"pending_requests"`
	CompletedRequests int        `json:"completed_requests"`
	LastRequestDate   *time.Time `json:"last_request_date,omitempty"`
}

// UserStatisticsResponse summarizes users for the dashboard.
type UserStatisticsResponse struct {
	TotalUsers          int            `json:"total_users"`
	ActiveUsers         int            `json:"active_users"`
	BlockedUsers        int            `json:"blocked_users"`
	TotalBlockedIDs     int            `json:"total_blocked_ids"`
	RecentRegistrations []UserResponse `json:"recent_registrations"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	ids := u.RequestIDs
	if ids == nil {
		ids = []string{}
	}
	return UserResponse{
		ID:               u.ID,
		FullName:         u.FullName,
		NationalID:       u.NationalID,
		Email:            u.Email,
		Phone:            u.Phone,
		Status:           u.Status,
		RequestIDs:       ids,
		RegistrationDate: u.RegistrationDate,
		LastLogin:        u.LastLogin,
		LastUpdated:      u.LastUpdated,
		BlockedDate:      u.BlockedDate,
		UnblockedDate:    u.UnblockedDate,
	}
}

// NewUserList maps a slice of users.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// NewUserDetailsResponse maps user details.
func NewUserDetailsResponse(d *domain.UserDetails) UserDetailsResponse {
	return UserDetailsResponse{
		UserResponse:      NewUserResponse(&d.User),
		RequestsCount:     d.RequestsCount,
		PendingRequests:   d.PendingRequests,
		CompletedRequests: d.CompletedRequests,
		LastRequestDate:   d.LastRequestDate,
	}
}

// NewUserStatisticsResponse maps user statistics.
func NewUserStatisticsResponse(s *domain.UserStatistics) UserStatisticsResponse {
	return UserStatisticsResponse{
		TotalUsers:          s.TotalUsers,
		ActiveUsers:         s.ActiveUsers,
		BlockedUsers:        s.BlockedUsers,
		TotalBlockedIDs:     s.TotalBlockedIDs,
		RecentRegistrations: NewUserList(s.RecentRegistrations),
	}
}
