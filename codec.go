package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// itemRecord is the durable shape of an Item. Pointers let decodeItem reject
// records with missing fields instead of zero-filling them.
type itemRecord struct {
	ID          *uint64    `json:"id"`
	Owner       *string    `json:"owner"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// encodeItem returns the durable byte representation of an item.
func encodeItem(item Item) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode item %d: %w", item.ID, err)
	}
	return data, nil
}

// decodeItem parses bytes written by encodeItem and checks that the record
// belongs to key. The store is the only writer of this format, so anything
// else is reported as ErrCorruptRecord.
func decodeItem(key uint64, data []byte) (Item, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return Item{}, fmt.Errorf("%w: key %d: null record", ErrCorruptRecord, key)
	}
	var rec itemRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return Item{}, fmt.Errorf("%w: key %d: %v", ErrCorruptRecord, key, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Item{}, fmt.Errorf("%w: key %d: trailing data", ErrCorruptRecord, key)
	}
	if rec.ID == nil || rec.Owner == nil || rec.Name == nil || rec.Description == nil ||
		rec.CreatedAt == nil || rec.UpdatedAt == nil {
		return Item{}, fmt.Errorf("%w: key %d: missing fields", ErrCorruptRecord, key)
	}
	if *rec.ID != key {
		return Item{}, fmt.Errorf("%w: key %d holds item %d", ErrCorruptRecord, key, *rec.ID)
	}
	return Item{
		ID:          *rec.ID,
		Owner:       *rec.Owner,
		Name:        *rec.Name,
		Description: *rec.Description,
		CreatedAt:   *rec.CreatedAt,
		UpdatedAt:   *rec.UpdatedAt,
	}, nil
}
