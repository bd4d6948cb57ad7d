package repository

import (
	"strings"

	"github.com/spec-kit/medical-portal/internal/domain"
)

// UserRepository defines persistence access for portal users.
type UserRepository interface {
	List() ([]domain.User, error)
	GetByID(id string) (domain.User, error)
	GetByNationalID(nationalID string) (domain.User, error)
	GetByEmail(email string) (domain.User, error)
	Save(user domain.User) error
	Delete(id string) error
}

type userRepository struct {
	tx *Tx
}

// Users returns the users table of tx.
func (tx *Tx) Users() UserRepository {
	return &userRepository{tx: tx}
}

func (tx *Tx) userDoc() (*document[domain.User], error) {
	if tx.users == nil {
		doc, err := loadDocument(tx, keyUsers, func(u *domain.User) string { return u.ID })
		if err != nil {
			return nil, err
		}
		tx.users = doc
	}
	return tx.users, nil
}

func (r *userRepository) List() ([]domain.User, error) {
	doc, err := r.tx.userDoc()
	if err != nil {
		return nil, err
	}
	return doc.filter(nil), nil
}

func (r *userRepository) GetByID(id string) (domain.User, error) {
	doc, err := r.tx.userDoc()
	if err != nil {
		return domain.User{}, err
	}
	user, ok := doc.get(id)
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

func (r *userRepository) GetByNationalID(nationalID string) (domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return u.NationalID == nationalID })
}

// GetByEmail matches case-insensitively.
func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepository) findOne(match func(*domain.User) bool) (domain.User, error) {
	doc, err := r.tx.userDoc()
	if err != nil {
		return domain.User{}, err
	}
	found := doc.filter(match)
	if len(found) == 0 {
		return domain.User{}, ErrNotFound
	}
	return found[0], nil
}

func (r *userRepository) Save(user domain.User) error {
	if err := r.tx.checkWritable(); err != nil {
		return err
	}
	doc, err := r.tx.userDoc()
	if err != nil {
		return err
	}
	doc.put(user)
	return nil
}

func (r *userRepository) Delete(id string) error {
	if err := r.tx.checkWritable(); err != nil {
		return err
	}
	doc, err := r.tx.userDoc()
	if err != nil {
		return err
	}
	if removed := doc.removeWhere(func(u *domain.User) bool { return u.ID == id }); len(removed) == 0 {
		return ErrNotFound
	}
	return nil
}
