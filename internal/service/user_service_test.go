package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/repository"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

func TestRegisterRejectsDuplicateNationalID(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, ahmed())
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.Empty(t, user.RequestIDs)

	dup := ahmed()
	dup.Email = "other@x.com"
	_, err := f.users.Register(f.ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)

	users, err := f.users.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterRejectsDuplicateEmailIgnoringCase(t *testing.T) {
	f := newFixture(t)
	f.register(t, ahmed())

	other := ahmed()
	other.NationalID = "1234567891"
	other.Email = "A@X.COM"
	_, err := f.users.Register(f.ctx, other)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)
}

func TestRegisterValidatesShapes(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(*RegisterInput){
		"short national id": func(in *RegisterInput) { in.NationalID = "12345" },
		"letters in id":     func(in *RegisterInput) { in.NationalID = "12345abcde" },
		"bad email":         func(in *RegisterInput) { in.Email = "not-an-email" },
		"short phone":       func(in *RegisterInput) { in.Phone = "+966 50" },
		"missing name":      func(in *RegisterInput) { in.FullName = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := ahmed()
			mutate(&in)
			_, err := f.users.Register(f.ctx, in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestRegisterRejectsBlockedNationalIDRegardlessOfHistory(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())

	_, err := f.users.Block(f.ctx, nil, user.ID)
	require.NoError(t, err)

	// still registered: block list wins over the duplicate check
	_, err = f.users.Register(f.ctx, ahmed())
	assert.ErrorIs(t, err, apperrors.ErrBlockedUser)

	_, err = f.users.Delete(f.ctx, nil, user.ID)
	require.NoError(t, err)

	_, err = f.users.Register(f.ctx, ahmed())
	assert.ErrorIs(t, err, apperrors.ErrBlockedUser)
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	session := domain.NewSession()

	_, err := f.users.Login(f.ctx, session, "0000000000")
	assert.ErrorIs(t, err, apperrors.ErrUnknownUser)
	_, ok := session.CurrentUser()
	assert.False(t, ok)

	f.clock.Advance(time.Hour)
	logged, err := f.users.Login(f.ctx, session, user.NationalID)
	require.NoError(t, err)
	require.NotNil(t, logged.LastLogin)
	assert.Equal(t, f.clock.Now().UTC(), *logged.LastLogin)
	assert.True(t, session.Holds(user.ID))

	f.users.Logout(session)
	f.users.Logout(session)
	_, ok = session.CurrentUser()
	assert.False(t, ok)
}

func TestBlockingLoggedInUserEndsSession(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	session := domain.NewSession()
	_, err := f.users.Login(f.ctx, session, user.NationalID)
	require.NoError(t, err)

	blocked, err := f.users.Block(f.ctx, session, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusBlocked, blocked.Status)
	assert.NotNil(t, blocked.BlockedDate)

	current, err := f.users.CurrentUser(f.ctx, session)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = f.users.Login(f.ctx, session, user.NationalID)
	assert.ErrorIs(t, err, apperrors.ErrBlockedUser)
}

func TestBlockIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())

	first, err := f.users.Block(f.ctx, nil, user.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.users.Block(f.ctx, nil, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.BlockedDate, second.BlockedDate)

	stats, err := f.users.Statistics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBlockedIDs)
	assert.Equal(t, 1, stats.BlockedUsers)
}

func TestCurrentUserDetectsBlockedSessionUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	session := domain.NewSession()
	_, err := f.users.Login(f.ctx, session, user.NationalID)
	require.NoError(t, err)

	// blocked through another session
	_, err = f.users.Block(f.ctx, domain.NewSession(), user.ID)
	require.NoError(t, err)
	assert.True(t, session.Holds(user.ID))

	current, err := f.users.CurrentUser(f.ctx, session)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.False(t, session.Holds(user.ID))
}

func TestUnblockRestoresLogin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	_, err := f.users.Block(f.ctx, nil, user.ID)
	require.NoError(t, err)

	unblocked, err := f.users.Unblock(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, unblocked.Status)
	assert.Nil(t, unblocked.BlockedDate)
	assert.NotNil(t, unblocked.UnblockedDate)

	_, err = f.users.Login(f.ctx, domain.NewSession(), user.NationalID)
	assert.NoError(t, err)

	_, err = f.users.Unblock(f.ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	otherInput := ahmed()
	otherInput.NationalID, otherInput.Email = "9876543210", "b@x.com"
	other := f.register(t, otherInput)

	const n = 3
	var first *domain.Request
	for i := 0; i < n; i++ {
		req := f.createAppointment(t, user.ID)
		if first == nil {
			first = req
		}
	}
	kept := f.createAppointment(t, other.ID)
	_, err := f.files.AttachFile(f.ctx, first.ID, pdfUpload())
	require.NoError(t, err)

	session := domain.NewSession()
	_, err = f.users.Login(f.ctx, session, user.NationalID)
	require.NoError(t, err)

	before, err := f.requests.List(f.ctx, repository.RequestFilter{})
	require.NoError(t, err)

	deleted, err := f.users.Delete(f.ctx, session, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, deleted.ID)
	assert.False(t, session.Holds(user.ID))

	after, err := f.requests.List(f.ctx, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, after, len(before)-n)
	for _, r := range after {
		assert.NotEqual(t, user.ID, r.UserID)
	}
	assert.Equal(t, kept.ID, after[0].ID)

	removed, err := f.requests.CleanupOrphans(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	files, err := f.files.ListFiles(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.NotContains(t, f.kv.Keys(), "pdf_"+first.ID)

	_, err = f.users.Get(f.ctx, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, f.eventTypes(), events.EventUserDeleted)
}

func TestCurrentUserClearsDeletedUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	session := domain.NewSession()
	_, err := f.users.Login(f.ctx, session, user.NationalID)
	require.NoError(t, err)

	_, err = f.users.Delete(f.ctx, domain.NewSession(), user.ID)
	require.NoError(t, err)

	current, err := f.users.CurrentUser(f.ctx, session)
	require.NoError(t, err)
	assert.Nil(t, current)
	_, ok := session.CurrentUser()
	assert.False(t, ok)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	otherInput := ahmed()
	otherInput.NationalID, otherInput.Email = "9876543210", "b@x.com"
	f.register(t, otherInput)

	taken := "B@x.com"
	_, err := f.users.Update(f.ctx, user.ID, domain.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)

	same := "A@X.com"
	name := "Ahmed A. Ali"
	updated, err := f.users.Update(f.ctx, user.ID, domain.UserUpdate{Email: &same, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", updated.Email)
	assert.Equal(t, name, updated.FullName)
	assert.NotNil(t, updated.LastUpdated)

	badPhone := "12"
	_, err = f.users.Update(f.ctx, user.ID, domain.UserUpdate{Phone: &badPhone})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.users.Update(f.ctx, "missing", domain.UserUpdate{FullName: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSearchAndFilterUsers(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	otherInput := RegisterInput{FullName: "Sara Omar", NationalID: "9876543210", Email: "sara@x.com", Phone: "0559876543"}
	f.register(t, otherInput)
	_, err := f.users.Block(f.ctx, nil, user.ID)
	require.NoError(t, err)

	all, err := f.users.Search(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.users.Search(f.ctx, "SARA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Sara Omar", found[0].FullName)

	found, err = f.users.Search(f.ctx, "05012")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	blocked, err := f.users.FilterByStatus(f.ctx, "blocked")
	require.NoError(t, err)
	assert.Len(t, blocked, 1)

	everyone, err := f.users.FilterByStatus(f.ctx, "all")
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	_, err = f.users.FilterByStatus(f.ctx, "deleted")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUserDetailsAndExport(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	f.createAppointment(t, user.ID)
	f.clock.Advance(time.Hour)
	second := f.createAppointment(t, user.ID)
	_, err := f.files.AttachFile(f.ctx, second.ID, pdfUpload())
	require.NoError(t, err)

	details, err := f.users.Details(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, details.RequestsCount)
	assert.Equal(t, 1, details.PendingRequests)
	assert.Equal(t, 1, details.CompletedRequests)
	require.NotNil(t, details.LastRequestDate)
	assert.Equal(t, second.CreatedDate, *details.LastRequestDate)
	assert.Len(t, details.RequestIDs, 2)

	export, err := f.users.Export(f.ctx)
	require.NoError(t, err)
	assert.Len(t, export.Users, 1)
	assert.Len(t, export.Requests, 2)
	assert.Equal(t, 1, export.RequestStats.TotalUploadedFiles)
	assert.Equal(t, f.clock.Now().UTC(), export.ExportDate)
}
