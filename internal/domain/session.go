package domain

// Session holds at most one authenticated user. The zero value is logged out.
type Session struct {
	user *User
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Start replaces the current identity with user.
func (s *Session) Start(user User) {
	u := user
	s.user = &u
}

// Clear logs the session out. Safe to call repeatedly.
func (s *Session) Clear() {
	if s != nil {
		s.user = nil
	}
}

// CurrentUser returns a copy of the logged-in user, if any.
func (s *Session) CurrentUser() (User, bool) {
	if s == nil || s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Holds reports whether userID is the logged-in user.
func (s *Session) Holds(userID string) bool {
	return s != nil && s.user != nil && s.user.ID == userID
}
