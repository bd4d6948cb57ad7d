package domain

import "time"

// UserStatus represents lifecycle states for an end-user.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusBlocked
}

// User is a registered portal user. NationalID doubles as the login credential.
type User struct {
	ID               string     `json:"id"`
	FullName         string     `json:"fullName"`
	NationalID       string     `json:"nationalId"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Status           UserStatus `json:"status"`
	RequestIDs       []string   `json:"requests"`
	RegistrationDate time.Time  `json:"registrationDate"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	LastUpdated      *time.Time `json:"lastUpdated,omitempty"`
	BlockedDate      *time.Time `json:"blockedDate,omitempty"`
	UnblockedDate    *time.Time `json:"unblockedDate,omitempty"`
}

// IsBlocked reports whether the user record itself is blocked.
func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

// UserUpdate lists the fields an admin may change. Nil fields are left untouched.
type UserUpdate struct {
	FullName *string
	Email    *string
	Phone    *string
}

// UserStatistics aggregates user counts for the admin dashboard.
type UserStatistics struct {
	TotalUsers          int    `json:"totalUsers"`
	ActiveUsers         int    `json:"activeUsers"`
	BlockedUsers        int    `json:"blockedUsers"`
	TotalBlockedIDs     int    `json:"totalBlockedIds"`
	RecentRegistrations []User `json:"recentRegistrations"`
}

// UserDetails is a user together with a summary of their requests.
type UserDetails struct {
	User
	RequestsCount     int        `json:"requestsCount"`
	PendingRequests   int        `json:"pendingRequests"`
	CompletedRequests int        `json:"completedRequests"`
	LastRequestDate   *time.Time `json:"lastRequestDate,omitempty"`
}
