package repository

import (
	"encoding/json"

	"github.com/spec-kit/medical-portal/internal/domain"
)

// AttachmentRepository persists uploaded file records and their content.
type AttachmentRepository interface {
	Save(record domain.FileRecord, content []byte) error
	GetByRequest(requestID string) (domain.FileRecord, error)
	List(userID string) ([]domain.FileRecord, error)
	Content(requestID string) ([]byte, error)
	// DeleteByRequest removes the records and content of the given requests.
	DeleteByRequest(requestIDs ...string) (int, error)
}

type attachmentRepository struct {
	tx *Tx
}

// Attachments returns the uploaded_files table of tx.
func (tx *Tx) Attachments() AttachmentRepository {
	return &attachmentRepository{tx: tx}
}

func (tx *Tx) fileDoc() (*document[domain.FileRecord], error) {
	if tx.files == nil {
		doc, err := loadDocument(tx, keyFiles, func(f *domain.FileRecord) string { return f.RequestID })
		if err != nil {
			return nil, err
		}
		tx.files = doc
	}
	return tx.files, nil
}

// Save stores record keyed by its request, replacing any earlier attachment.
func (r *attachmentRepository) Save(record domain.FileRecord, content []byte) error {
	if err := r.tx.checkWritable(); err != nil {
		return err
	}
	doc, err := r.tx.fileDoc()
	if err != nil {
		return err
	}
	doc.put(record)
	key := ContentKey(record.RequestID)
	delete(r.tx.removeContents, key)
	r.tx.contents[key] = append([]byte(nil), content...)
	return nil
}

func (r *attachmentRepository) GetByRequest(requestID string) (domain.FileRecord, error) {
	doc, err := r.tx.fileDoc()
	if err != nil {
		return domain.FileRecord{}, err
	}
	record, ok := doc.get(requestID)
	if !ok {
		return domain.FileRecord{}, ErrNotFound
	}
	return record, nil
}

// List returns every record, or only userID's when it is non-empty.
func (r *attachmentRepository) List(userID string) ([]domain.FileRecord, error) {
	doc, err := r.tx.fileDoc()
	if err != nil {
		return nil, err
	}
	return doc.filter(func(f *domain.FileRecord) bool {
		return userID == "" || f.UserID == userID
	}), nil
}

func (r *attachmentRepository) Content(requestID string) ([]byte, error) {
	key := ContentKey(requestID)
	if _, removed := r.tx.removeContents[key]; removed {
		return nil, ErrNotFound
	}
	if content, ok := r.tx.contents[key]; ok {
		return append([]byte(nil), content...), nil
	}
	raw, err := r.tx.kv.Get(r.tx.ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	var content []byte
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, err
	}
	return content, nil
}

func (r *attachmentRepository) DeleteByRequest(requestIDs ...string) (int, error) {
	if err := r.tx.checkWritable(); err != nil {
		return 0, err
	}
	doc, err := r.tx.fileDoc()
	if err != nil {
		return 0, err
	}
	targets := make(map[string]struct{}, len(requestIDs))
	for _, id := range requestIDs {
		targets[id] = struct{}{}
		key := ContentKey(id)
		delete(r.tx.contents, key)
		r.tx.removeContents[key] = struct{}{}
	}
	removed := doc.removeWhere(func(f *domain.FileRecord) bool {
		_, ok := targets[f.RequestID]
		return ok
	})
	return len(removed), nil
}
