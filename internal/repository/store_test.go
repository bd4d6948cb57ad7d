package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/persistence"
)

func newUser(id, nationalID, email string) domain.User {
	return domain.User{
		ID:               id,
		FullName:         "User " + id,
		NationalID:       nationalID,
		Email:            email,
		Phone:            "0501234567",
		Status:           domain.UserStatusActive,
		RegistrationDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpdateCommitsAndViewReads(t *testing.T) {
	ctx := context.Background()
	kv := persistence.NewMemoryKV()
	store := NewStore(kv)

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		if err := tx.Users().Save(newUser("u1", "1234567890", "A@x.com")); err != nil {
			return err
		}
		return tx.BlockList().Add("9999999999")
	}))

	assert.ElementsMatch(t, []string{keyUsers, keyBlocked}, kv.Keys())

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		user, err := tx.Users().GetByEmail("a@X.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)

		_, err = tx.Users().GetByNationalID("0000000000")
		assert.ErrorIs(t, err, ErrNotFound)

		blocked, err := tx.BlockList().Contains("9999999999")
		require.NoError(t, err)
		assert.True(t, blocked)
		return nil
	}))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	kv := persistence.NewMemoryKV()
	store := NewStore(kv)

	boom := errors.New("boom")
	err := store.Update(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Users().Save(newUser("u1", "1234567890", "a@x.com")))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, kv.Keys())
}

func TestViewRejectsWrites(t *testing.T) {
	store := NewStore(persistence.NewMemoryKV())
	err := store.View(context.Background(), func(tx *Tx) error {
		return tx.Users().Save(newUser("u1", "1234567890", "a@x.com"))
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestAttachmentContentLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := persistence.NewMemoryKV()
	store := NewStore(kv)
	record := domain.FileRecord{ID: "f1", RequestID: "r1", UserID: "u1", FileName: "a.pdf", Size: 4}

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		return tx.Attachments().Save(record, []byte("%PDF"))
	}))
	assert.Contains(t, kv.Keys(), ContentKey("r1"))

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		content, err := tx.Attachments().Content("r1")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF"), content)

		files, err := tx.Attachments().List("u1")
		require.NoError(t, err)
		assert.Len(t, files, 1)
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		n, err := tx.Attachments().DeleteByRequest("r1")
		assert.Equal(t, 1, n)
		return err
	}))
	assert.NotContains(t, kv.Keys(), ContentKey("r1"))

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		_, err := tx.Attachments().Content("r1")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestRequestFilterAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(persistence.NewMemoryKV())

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		for _, r := range []domain.Request{
			{ID: "r1", UserID: "u1", Type: domain.RequestTypeAppointment, Data: domain.AppointmentData{}, Status: domain.RequestStatusPending},
			{ID: "r2", UserID: "u1", Type: domain.RequestTypeConsultation, Data: domain.ConsultationData{}, Status: domain.RequestStatusCompleted},
			{ID: "r3", UserID: "u2", Type: domain.RequestTypeAppointment, Data: domain.AppointmentData{}, Status: domain.RequestStatusPending},
		} {
			if err := tx.Requests().Save(r); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx *Tx) error {
		byUser, err := tx.Requests().List(RequestFilter{UserID: "u1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1", "r2"}, requestIDs(byUser))

		pendingAppointments, err := tx.Requests().List(RequestFilter{
			Statuses: []domain.RequestStatus{domain.RequestStatusPending},
			Types:    []domain.RequestType{domain.RequestTypeAppointment},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1", "r3"}, requestIDs(pendingAppointments))

		removed, err := tx.Requests().DeleteWhere(func(r *domain.Request) bool { return r.UserID == "u1" })
		require.NoError(t, err)
		assert.Len(t, removed, 2)
		return nil
	}))

	require.NoError(t, store.View(ctx, func(tx *Tx) error {
		all, err := tx.Requests().List(RequestFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"r3"}, requestIDs(all))
		_, err = tx.Requests().GetByID("r1")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

type failingKV struct {
	*persistence.MemoryKV
}

func (failingKV) Apply(context.Context, persistence.Batch) error {
	return errors.New("write failed")
}

func TestUpdateSurfacesCommitFailure(t *testing.T) {
	store := NewStore(failingKV{persistence.NewMemoryKV()})
	err := store.Update(context.Background(), func(tx *Tx) error {
		return tx.Users().Save(newUser("u1", "1234567890", "a@x.com"))
	})
	assert.ErrorContains(t, err, "write failed")
}

func requestIDs(reqs []domain.Request) []string {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	return ids
}
