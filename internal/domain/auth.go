package domain

// SubjectType differentiates end-user vs admin sessions.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeAdmin SubjectType = "ADMIN"
)
