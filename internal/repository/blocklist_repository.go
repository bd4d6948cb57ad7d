package repository

// BlockListRepository holds the national IDs barred from registering or logging in.
type BlockListRepository interface {
	Contains(nationalID string) (bool, error)
	Add(nationalID string) error
	Remove(nationalID string) error
	List() ([]string, error)
}

type blockListRepository struct {
	tx *Tx
}

// BlockList returns the blocked_users set of tx.
func (tx *Tx) BlockList() BlockListRepository {
	return &blockListRepository{tx: tx}
}

func (tx *Tx) blockDoc() (*blockSet, error) {
	if tx.blocked == nil {
		set, err := loadBlockSet(tx)
		if err != nil {
			return nil, err
		}
		tx.blocked = set
	}
	return tx.blocked, nil
}

func (r *blockListRepository) Contains(nationalID string) (bool, error) {
	set, err := r.tx.blockDoc()
	if err != nil {
		return false, err
	}
	return set.contains(nationalID), nil
}

func (r *blockListRepository) Add(nationalID string) error {
	if err := r.tx.checkWritable(); err != nil {
		return err
	}
	set, err := r.tx.blockDoc()
	if err != nil {
		return err
	}
	set.add(nationalID)
	return nil
}

func (r *blockListRepository) Remove(nationalID string) error {
	if err := r.tx.checkWritable(); err != nil {
		return err
	}
	set, err := r.tx.blockDoc()
	if err != nil {
		return err
	}
	set.remove(nationalID)
	return nil
}

func (r *blockListRepository) List() ([]string, error) {
	set, err := r.tx.blockDoc()
	if err != nil {
		return nil, err
	}
	return set.list(), nil
}
