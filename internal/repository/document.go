package repository

import "encoding/json"

// document is a JSON array of records kept in insertion order with an ID index.
type document[T any] struct {
	key   string
	items []T
	index map[string]int
	idOf  func(*T) string
	dirty bool
}

func loadDocument[T any](tx *Tx, key string, idOf func(*T) string) (*document[T], error) {
	doc := &document[T]{key: key, idOf: idOf}
	if err := tx.load(key, &doc.items); err != nil {
		return nil, err
	}
	doc.reindex()
	return doc, nil
}

func (d *document[T]) reindex() {
	d.index = make(map[string]int, len(d.items))
	for i := range d.items {
		d.index[d.idOf(&d.items[i])] = i
	}
}

func (d *document[T]) get(id string) (T, bool) {
	i, ok := d.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return d.items[i], true
}

// put replaces the record with the same ID or appends a new one.
func (d *document[T]) put(item T) {
	id := d.idOf(&item)
	if i, ok := d.index[id]; ok {
		d.items[i] = item
	} else {
		d.index[id] = len(d.items)
		d.items = append(d.items, item)
	}
	d.dirty = true
}

// removeWhere drops the records match selects and returns them.
func (d *document[T]) removeWhere(match func(*T) bool) []T {
	var removed []T
	kept := d.items[:0:0]
	for i := range d.items {
		if match(&d.items[i]) {
			removed = append(removed, d.items[i])
			continue
		}
		kept = append(kept, d.items[i])
	}
	if len(removed) > 0 {
		d.items = kept
		d.reindex()
		d.dirty = true
	}
	return removed
}

func (d *document[T]) filter(match func(*T) bool) []T {
	out := make([]T, 0, len(d.items))
	for i := range d.items {
		if match == nil || match(&d.items[i]) {
			out = append(out, d.items[i])
		}
	}
	return out
}

func (d *document[T]) dirtyKey() (string, bool) {
	return d.key, d.dirty
}

func (d *document[T]) encode() ([]byte, error) {
	if d.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.items)
}

// blockSet is the blocked_users document: a JSON array of national IDs.
type blockSet struct {
	ids   []string
	dirty bool
}

func loadBlockSet(tx *Tx) (*blockSet, error) {
	set := &blockSet{}
	if err := tx.load(keyBlocked, &set.ids); err != nil {
		return nil, err
	}
	return set, nil
}

func (b *blockSet) contains(id string) bool {
	for _, existing := range b.ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (b *blockSet) add(id string) {
	if b.contains(id) {
		return
	}
	b.ids = append(b.ids, id)
	b.dirty = true
}

func (b *blockSet) remove(id string) {
	for i, existing := range b.ids {
		if existing == id {
			b.ids = append(b.ids[:i:i], b.ids[i+1:]...)
			b.dirty = true
			return
		}
	}
}

func (b *blockSet) list() []string {
	return append([]string(nil), b.ids...)
}

func (b *blockSet) dirtyKey() (string, bool) {
	return keyBlocked, b.dirty
}

func (b *blockSet) encode() ([]byte, error) {
	if b.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b.ids)
}
