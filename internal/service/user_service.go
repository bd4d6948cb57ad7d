package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/repository"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

const recentRegistrationsLimit = 5

// UserService manages portal users, the block list and login sessions.
type UserService struct {
	base
}

// NewUserService constructs the service.
func NewUserService(deps Dependencies) *UserService {
	return &UserService{base: newBase(deps)}
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	FullName   string `json:"fullName" validate:"required,min=2,max=100"`
	NationalID string `json:"nationalId" validate:"required,nationalid"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone"`
}

func (in RegisterInput) normalized() RegisterInput {
	return RegisterInput{
		FullName:   strings.TrimSpace(in.FullName),
		NationalID: strings.TrimSpace(in.NationalID),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:      strings.TrimSpace(in.Phone),
	}
}

// userUpdateInput validates only the fields present in a domain.UserUpdate.
type userUpdateInput struct {
	FullName *string `json:"fullName" validate:"omitnil,min=2,max=100"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Phone    *string `json:"phone" validate:"omitnil,phone"`
}

// Register creates an active user. A block-listed national ID is rejected before duplicates are checked.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input = input.normalized()
	if err := s.validate(input); err != nil {
		return nil, err
	}

	var user domain.User
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		blocked, err := tx.BlockList().Contains(input.NationalID)
		if err != nil {
			return err
		}
		if blocked {
			return apperrors.NewBlockedUser(input.NationalID)
		}
		if err := ensureAbsent(tx.Users().GetByNationalID(input.NationalID)); errors.Is(err, errExists) {
			return apperrors.NewDuplicateUser("nationalId")
		} else if err != nil {
			return err
		}
		if err := ensureAbsent(tx.Users().GetByEmail(input.Email)); errors.Is(err, errExists) {
			return apperrors.NewDuplicateUser("email")
		} else if err != nil {
			return err
		}

		user = domain.User{
			ID:               uuid.NewString(),
			FullName:         input.FullName,
			NationalID:       input.NationalID,
			Email:            input.Email,
			Phone:            input.Phone,
			Status:           domain.UserStatusActive,
			RequestIDs:       []string{},
			RegistrationDate: s.timestamp(),
		}
		return tx.Users().Save(user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserRegistered,
		UserID: user.ID,
		Actor:  userActor(user.ID),
	})
	return &user, nil
}

// Login starts session for the user holding nationalID and stamps lastLogin.
func (s *UserService) Login(ctx context.Context, session *domain.Session, nationalID string) (*domain.User, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{"nationalId": "nationalId is required"})
	}

	var user domain.User
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		blocked, err := tx.BlockList().Contains(nationalID)
		if err != nil {
			return err
		}
		if blocked {
			return apperrors.NewBlockedUser(nationalID)
		}
		user, err = tx.Users().GetByNationalID(nationalID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnknownUser(map[string]any{"national_id": nationalID})
		} else if err != nil {
			return err
		}
		if user.IsBlocked() {
			return apperrors.NewBlockedUser(nationalID)
		}
		user.LastLogin = timePtr(s.timestamp())
		return tx.Users().Save(user)
	})
	if err != nil {
		return nil, err
	}

	session.Start(user)
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &user, nil
}

// Logout clears session.
func (s *UserService) Logout(session *domain.Session) {
	session.Clear()
}

// CurrentUser re-reads the session's user. A deleted or blocked user ends the session and yields nil.
func (s *UserService) CurrentUser(ctx context.Context, session *domain.Session) (*domain.User, error) {
	current, ok := session.CurrentUser()
	if !ok {
		return nil, nil
	}

	var (
		user   domain.User
		active bool
	)
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(current.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		blocked, err := tx.BlockList().Contains(user.NationalID)
		if err != nil {
			return err
		}
		active = !blocked && !user.IsBlocked()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !active {
		session.Clear()
		return nil, nil
	}
	session.Start(user)
	return &user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(userID)
		return notFound(err, "user", userID)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Details returns a user with a summary of their requests.
func (s *UserService) Details(ctx context.Context, userID string) (*domain.UserDetails, error) {
	var details domain.UserDetails
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		user, err := tx.Users().GetByID(userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		reqs, err := tx.Requests().List(repository.RequestFilter{UserID: userID})
		if err != nil {
			return err
		}
		details = domain.UserDetails{User: user, RequestsCount: len(reqs)}
		for _, r := range reqs {
			switch r.Status {
			case domain.RequestStatusPending:
				details.PendingRequests++
			case domain.RequestStatusCompleted:
				details.CompletedRequests++
			}
			if details.LastRequestDate == nil || r.CreatedDate.After(*details.LastRequestDate) {
				details.LastRequestDate = timePtr(r.CreatedDate)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// Block marks the user blocked, adds their national ID to the block list and ends session if it holds them.
// Blocking an already blocked user changes nothing.
func (s *UserService) Block(ctx context.Context, session *domain.Session, userID string) (*domain.User, error) {
	var (
		user    domain.User
		changed bool
	)
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		if !user.IsBlocked() {
			user.Status = domain.UserStatusBlocked
			user.BlockedDate = timePtr(s.timestamp())
			if err := tx.Users().Save(user); err != nil {
				return err
			}
			changed = true
		}
		return tx.BlockList().Add(user.NationalID)
	})
	if err != nil {
		return nil, err
	}

	if session.Holds(userID) {
		session.Clear()
	}
	if changed {
		s.logger.Info("user blocked", zap.String("user_id", userID))
		s.publishEvent(ctx, events.Event{Type: events.EventUserBlocked, UserID: userID, Actor: adminActor()})
	}
	return &user, nil
}

// Unblock reactivates the user and removes their national ID from the block list.
func (s *UserService) Unblock(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		user.Status = domain.UserStatusActive
		user.BlockedDate = nil
		user.UnblockedDate = timePtr(s.timestamp())
		if err := tx.Users().Save(user); err != nil {
			return err
		}
		return tx.BlockList().Remove(user.NationalID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user unblocked", zap.String("user_id", userID))
	s.publishEvent(ctx, events.Event{Type: events.EventUserUnblocked, UserID: userID, Actor: adminActor()})
	return &user, nil
}

// Delete removes the user with every request and attachment they own, in one commit.
// The block list is left untouched.
func (s *UserService) Delete(ctx context.Context, session *domain.Session, userID string) (*domain.User, error) {
	var (
		user          domain.User
		requestsCount int
		filesCount    int
	)
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		removed, err := tx.Requests().DeleteWhere(func(r *domain.Request) bool { return r.UserID == userID })
		if err != nil {
			return err
		}
		requestsCount = len(removed)

		ids := make([]string, 0, len(removed))
		for _, r := range removed {
			ids = append(ids, r.ID)
		}
		files, err := tx.Attachments().List(userID)
		if err != nil {
			return err
		}
		for _, f := range files {
			ids = append(ids, f.RequestID)
		}
		if filesCount, err = tx.Attachments().DeleteByRequest(ids...); err != nil {
			return err
		}
		return tx.Users().Delete(userID)
	})
	if err != nil {
		return nil, err
	}

	if session.Holds(userID) {
		session.Clear()
	}
	s.logger.Info("user deleted",
		zap.String("user_id", userID),
		zap.Int("requests_removed", requestsCount),
		zap.Int("files_removed", filesCount))
	s.publishEvent(ctx, events.Event{
		Type:   events.EventUserDeleted,
		UserID: userID,
		Actor:  adminActor(),
		Payload: events.UserDeletedPayload{
			NationalID:      user.NationalID,
			RequestsRemoved: requestsCount,
			FilesRemoved:    filesCount,
		},
	})
	return &user, nil
}

// Update changes the given fields. The new email must not belong to another user.
func (s *UserService) Update(ctx context.Context, userID string, update domain.UserUpdate) (*domain.User, error) {
	update = normalizeUpdate(update)
	if err := s.validate(userUpdateInput(update)); err != nil {
		return nil, err
	}

	var user domain.User
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		if update.Email != nil {
			other, err := tx.Users().GetByEmail(*update.Email)
			switch {
			case err == nil && other.ID != userID:
				return apperrors.NewDuplicateUser("email")
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return err
			}
			user.Email = *update.Email
		}
		if update.FullName != nil {
			user.FullName = *update.FullName
		}
		if update.Phone != nil {
			user.Phone = *update.Phone
		}
		user.LastUpdated = timePtr(s.timestamp())
		return tx.Users().Save(user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeUpdate(update domain.UserUpdate) domain.UserUpdate {
	trim := func(v *string, lower bool) *string {
		if v == nil {
			return nil
		}
		out := strings.TrimSpace(*v)
		if lower {
			out = strings.ToLower(out)
		}
		return &out
	}
	return domain.UserUpdate{
		FullName: trim(update.FullName, false),
		Email:    trim(update.Email, true),
		Phone:    trim(update.Phone, false),
	}
}

// List returns every user in registration order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		users, err = tx.Users().List()
		return err
	})
	return users, err
}

// Search matches term case-insensitively against name, national ID, email and phone. An empty term returns all users.
func (s *UserService) Search(ctx context.Context, term string) ([]domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return users, nil
	}
	matched := make([]domain.User, 0, len(users))
	for _, u := range users {
		for _, field := range []string{u.FullName, u.NationalID, u.Email, u.Phone} {
			if strings.Contains(strings.ToLower(field), term) {
				matched = append(matched, u)
				break
			}
		}
	}
	return matched, nil
}

// FilterByStatus returns users in status, or every user for "all".
func (s *UserService) FilterByStatus(ctx context.Context, status string) ([]domain.User, error) {
	if status == "" || status == "all" {
		return s.List(ctx)
	}
	want := domain.UserStatus(status)
	if !want.Valid() {
		return nil, apperrors.NewValidationError("invalid user status", map[string]any{"status": status})
	}
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Status == want {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

// Statistics aggregates user counts and the most recent registrations.
func (s *UserService) Statistics(ctx context.Context) (*domain.UserStatistics, error) {
	var stats domain.UserStatistics
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		users, err := tx.Users().List()
		if err != nil {
			return err
		}
		blocked, err := tx.BlockList().List()
		if err != nil {
			return err
		}
		stats = userStatistics(users, len(blocked))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func userStatistics(users []domain.User, blockedIDs int) domain.UserStatistics {
	stats := domain.UserStatistics{TotalUsers: len(users), TotalBlockedIDs: blockedIDs}
	for _, u := range users {
		if u.IsBlocked() {
			stats.BlockedUsers++
		} else {
			stats.ActiveUsers++
		}
	}
	recent := append([]domain.User(nil), users...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].RegistrationDate.After(recent[j].RegistrationDate)
	})
	if len(recent) > recentRegistrationsLimit {
		recent = recent[:recentRegistrationsLimit]
	}
	stats.RecentRegistrations = recent
	return stats
}

// Export is a snapshot of every portal table.
type Export struct {
	Users        []domain.User            `json:"users"`
	BlockedUsers []string                 `json:"blockedUsers"`
	Requests     []domain.Request         `json:"requests"`
	Statistics   domain.UserStatistics    `json:"statistics"`
	RequestStats domain.RequestStatistics `json:"requestStatistics"`
	ExportDate   time.Time                `json:"exportDate"`
}

// Export snapshots users, the block list and requests in one read.
func (s *UserService) Export(ctx context.Context) (*Export, error) {
	out := Export{ExportDate: s.timestamp()}
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		if out.Users, err = tx.Users().List(); err != nil {
			return err
		}
		if out.BlockedUsers, err = tx.BlockList().List(); err != nil {
			return err
		}
		if out.Requests, err = tx.Requests().List(repository.RequestFilter{}); err != nil {
			return err
		}
		files, err := tx.Attachments().List("")
		if err != nil {
			return err
		}
		out.Statistics = userStatistics(out.Users, len(out.BlockedUsers))
		out.RequestStats = requestStatistics(out.Requests, files, out.ExportDate, s.now().Location())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ensureAbsent returns nil when the lookup found nothing, and errExists when it did.
func ensureAbsent(_ domain.User, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	default:
		return errExists
	}
}

var errExists = errors.New("record exists")
