package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/medical-portal/internal/domain"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/persistence"
	"github.com/spec-kit/medical-portal/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx      context.Context
	kv       *persistence.MemoryKV
	store    *repository.Store
	clock    *fakeClock
	users    *UserService
	requests *RequestService
	files    *FileService

	mu     sync.Mutex
	events []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := persistence.NewMemoryKV()
	f := &fixture{
		ctx:   context.Background(),
		kv:    kv,
		store: repository.NewStore(kv),
		clock: &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.events = append(f.events, e)
			return nil
		})
	}
	deps := Dependencies{Store: f.store, Dispatcher: dispatcher, Now: f.clock.Now}
	f.users = NewUserService(deps)
	f.requests = NewRequestService(deps)
	f.files = NewFileService(deps)
	return f
}

func (f *fixture) eventTypes() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func ahmed() RegisterInput {
	return RegisterInput{
		FullName:   "Ahmed Ali",
		NationalID: "1234567890",
		Email:      "a@x.com",
		Phone:      "0501234567",
	}
}

func (f *fixture) register(t *testing.T, input RegisterInput) *domain.User {
	t.Helper()
	user, err := f.users.Register(f.ctx, input)
	require.NoError(t, err)
	return user
}

func (f *fixture) createAppointment(t *testing.T, userID string) *domain.Request {
	t.Helper()
	req, err := f.requests.Create(f.ctx, userID, domain.RequestTypeAppointment, appointment())
	require.NoError(t, err)
	return req
}

func appointment() domain.AppointmentData {
	return domain.AppointmentData{
		Specialty:     "cardiology",
		City:          "Riyadh",
		PreferredDate: "2024-04-01",
		PreferredTime: "10:00",
	}
}

func pdfUpload() domain.FileUpload {
	return domain.FileUpload{
		FileName:   "result.pdf",
		MediaType:  "application/pdf",
		Content:    append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 128)...),
		Notes:      "lab results",
		UploadedBy: "admin",
	}
}
