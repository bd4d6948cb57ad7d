package repository

import (
	"github.com/spec-kit/medical-portal/internal/domain"
)

// RequestFilter narrows List results. Empty fields match everything.
type RequestFilter struct {
	UserID   string
	Statuses []domain.RequestStatus
	Types    []domain.RequestType
}

func (f RequestFilter) matches(r *domain.Request) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, r.Type) {
		return false
	}
	return true
}

// RequestRepository defines persistence access for service requests.
type RequestRepository interface {
	List(filter RequestFilter) ([]domain.Request, error)
	GetByID(id string) (domain.Request, error)
	Save(request domain.Request) error
	// DeleteWhere removes matching requests and returns them.
	DeleteWhere(match func(*domain.Request) bool) ([]domain.Request, error)
}

type requestRepository struct {
	tx *Tx
}

// Requests returns the requests table of tx.
func (tx *Tx) Requests() RequestRepository {
	return &requestRepository{tx: tx}
}

func (tx *Tx) requestDoc() (*document[domain.Request], error) {
	if tx.requests == nil {
		doc, err := loadDocument(tx, keyRequests, func(r *domain.Request) string { return r.ID })
		if err != nil {
			return nil, err
		}
		tx.requests = doc
	}
	return tx.requests, nil
}

func (r *requestRepository) List(filter RequestFilter) ([]domain.Request, error) {
	doc, err := r.tx.requestDoc()
	if err != nil {
		return nil, err
	}
	return doc.filter(filter.matches), nil
}

func (r *requestRepository) GetByID(id string) (domain.Request, error) {
	doc, err := r.tx.requestDoc()
	if err != nil {
		return domain.Request{}, err
	}
	req, ok := doc.get(id)
	if !ok {
		return domain.Request{}, ErrNotFound
	}
	return req, nil
}

func (r *requestRepository) Save(request domain.Request) error {
	if err := r.tx.checkWritable(); err != nil {
		return err
	}
	doc, err := r.tx.requestDoc()
	if err != nil {
		return err
	}
	doc.put(request)
	return nil
}

func (r *requestRepository) DeleteWhere(match func(*domain.Request) bool) ([]domain.Request, error) {
	if err := r.tx.checkWritable(); err != nil {
		return nil, err
	}
	doc, err := r.tx.requestDoc()
	if err != nil {
		return nil, err
	}
	return doc.removeWhere(match), nil
}

func containsStatus(list []domain.RequestStatus, s domain.RequestStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsType(list []domain.RequestType, t domain.RequestType) bool {
	for _, candidate := range list {
		if candidate == t {
			return true
		}
	}
	return false
}
