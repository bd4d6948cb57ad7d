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

func TestCreateThenListByUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())

	req := f.createAppointment(t, user.ID)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.False(t, req.PDFGenerated)

	listed, err := f.requests.ListByUser(f.ctx, user.ID)
	require.NoError(t, err)
	count := 0
	for _, r := range listed {
		if r.ID == req.ID {
			count++
			assert.Equal(t, appointment(), r.Data)
		}
	}
	assert.Equal(t, 1, count)

	stored, err := f.users.Get(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{req.ID}, stored.RequestIDs)
	assert.Contains(t, f.eventTypes(), events.EventRequestCreated)
}

func TestCreateRejectsUnknownUserAndBadPayloads(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())

	_, err := f.requests.Create(f.ctx, "missing", domain.RequestTypeAppointment, appointment())
	assert.ErrorIs(t, err, apperrors.ErrUnknownUser)

	_, err = f.requests.Create(f.ctx, user.ID, domain.RequestTypeConsultation, appointment())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.requests.Create(f.ctx, user.ID, "surgery", appointment())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.requests.Create(f.ctx, user.ID, domain.RequestTypeMedicalExcuse, domain.MedicalExcuseData{StartDate: "2024-01-01"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	listed, err := f.requests.ListByUser(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUpdateStatusValidTransitions(t *testing.T) {
	cases := []struct {
		from domain.RequestStatus
		to   domain.RequestStatus
	}{
		{domain.RequestStatusPending, domain.RequestStatusInProgress},
		{domain.RequestStatusPending, domain.RequestStatusCompleted},
		{domain.RequestStatusPending, domain.RequestStatusCancelled},
		{domain.RequestStatusInProgress, domain.RequestStatusCompleted},
		{domain.RequestStatusInProgress, domain.RequestStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			f := newFixture(t)
			user := f.register(t, ahmed())
			req := f.createAppointment(t, user.ID)

			var last time.Time
			if tc.from == domain.RequestStatusInProgress {
				f.clock.Advance(time.Minute)
				moved, err := f.requests.UpdateStatus(f.ctx, req.ID, tc.from, nil)
				require.NoError(t, err)
				last = *moved.UpdatedDate
			}

			f.clock.Advance(time.Minute)
			updated, err := f.requests.UpdateStatus(f.ctx, req.ID, tc.to, &domain.ProcessedData{Notes: "done"})
			require.NoError(t, err)
			assert.Equal(t, tc.to, updated.Status)
			require.NotNil(t, updated.UpdatedDate)
			assert.True(t, updated.UpdatedDate.After(last))
			assert.True(t, updated.UpdatedDate.After(req.CreatedDate))
			assert.Equal(t, "done", updated.ProcessedData.Notes)
		})
	}
}

func TestUpdateStatusRejectsInvalidStatus(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	req := f.createAppointment(t, user.ID)

	_, err := f.requests.UpdateStatus(f.ctx, req.ID, "approved", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	_, err = f.requests.UpdateStatus(f.ctx, req.ID, domain.RequestStatusPending, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	_, err = f.requests.UpdateStatus(f.ctx, req.ID, domain.RequestStatusCancelled, nil)
	require.NoError(t, err)
	_, err = f.requests.UpdateStatus(f.ctx, req.ID, domain.RequestStatusCompleted, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	stored, err := f.requests.Get(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCancelled, stored.Status)

	_, err = f.requests.UpdateStatus(f.ctx, "missing", domain.RequestStatusCompleted, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProcessRequiresOutcomeFields(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	req := f.createAppointment(t, user.ID)

	_, err := f.requests.Process(f.ctx, req.ID, domain.ProcessedData{DoctorName: "Dr. Huda"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	processed, err := f.requests.Process(f.ctx, req.ID, domain.ProcessedData{
		HospitalName:    "King Fahad",
		DoctorName:      "Dr. Huda",
		DoctorSpecialty: "cardiology",
		DoctorPhone:     "0112345678",
		AppointmentDate: "2024-04-02",
		AppointmentTime: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCompleted, processed.Status)
	assert.Equal(t, "King Fahad", processed.ProcessedData.HospitalName)

	report, err := f.requests.Create(f.ctx, user.ID, domain.RequestTypeMedicalReport,
		domain.MedicalReportData{ReportType: "general", Purpose: "employer"})
	require.NoError(t, err)
	_, err = f.requests.Process(f.ctx, report.ID, domain.ProcessedData{DoctorName: "x"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetForUserHidesOtherUsersRequests(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, ahmed())
	otherInput := ahmed()
	otherInput.NationalID, otherInput.Email = "9876543210", "b@x.com"
	other := f.register(t, otherInput)
	req := f.createAppointment(t, owner.ID)

	got, err := f.requests.GetForUser(f.ctx, owner.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.requests.GetForUser(f.ctx, other.ID, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFilterRequests(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	first := f.createAppointment(t, user.ID)
	_, err := f.requests.Create(f.ctx, user.ID, domain.RequestTypeConsultation,
		domain.ConsultationData{ConsultationType: "remote", Description: "headache"})
	require.NoError(t, err)
	_, err = f.requests.UpdateStatus(f.ctx, first.ID, domain.RequestStatusInProgress, nil)
	require.NoError(t, err)

	inProgress, err := f.requests.FilterByStatus(f.ctx, "in_progress")
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, first.ID, inProgress[0].ID)

	all, err := f.requests.FilterByStatus(f.ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	consultations, err := f.requests.FilterByType(f.ctx, "consultation")
	require.NoError(t, err)
	assert.Len(t, consultations, 1)

	_, err = f.requests.FilterByStatus(f.ctx, "archived")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	_, err = f.requests.FilterByType(f.ctx, "surgery")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCleanupOrphansRemovesRequestsAndFiles(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())
	kept := f.createAppointment(t, user.ID)

	orphan := domain.Request{
		ID:          "orphan-1",
		UserID:      "gone",
		Type:        domain.RequestTypeAppointment,
		Data:        appointment(),
		Status:      domain.RequestStatusPending,
		CreatedDate: f.clock.Now(),
	}
	require.NoError(t, f.store.Update(f.ctx, func(tx *repository.Tx) error {
		if err := tx.Requests().Save(orphan); err != nil {
			return err
		}
		return tx.Attachments().Save(domain.FileRecord{ID: "f", RequestID: orphan.ID, UserID: "gone", Size: 3}, []byte("pdf"))
	}))

	removed, err := f.requests.CleanupOrphans(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	all, err := f.requests.List(f.ctx, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)
	assert.NotContains(t, f.kv.Keys(), repository.ContentKey(orphan.ID))

	removed, err = f.requests.CleanupOrphans(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRequestStatisticsCountsToday(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, ahmed())

	f.createAppointment(t, user.ID)
	f.clock.Advance(24 * time.Hour)
	second := f.createAppointment(t, user.ID)
	third := f.createAppointment(t, user.ID)
	_, err := f.requests.UpdateStatus(f.ctx, second.ID, domain.RequestStatusCancelled, nil)
	require.NoError(t, err)
	_, err = f.files.AttachFile(f.ctx, third.ID, pdfUpload())
	require.NoError(t, err)

	stats, err := f.requests.Statistics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 2, stats.TodayRequests)
	assert.Equal(t, 1, stats.PendingRequests)
	assert.Equal(t, 1, stats.CancelledRequests)
	assert.Equal(t, 1, stats.CompletedRequests)
	assert.Equal(t, 3, stats.ByType[domain.RequestTypeAppointment])
	assert.Equal(t, 0, stats.ByType[domain.RequestTypeConsultation])
	assert.Equal(t, 1, stats.TotalUploadedFiles)
	assert.Equal(t, int64(len(pdfUpload().Content)), stats.TotalFileSize)
}
