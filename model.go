package main

import "time"

// Item is a named record owned by the caller that created it.
type Item struct {
	ID          uint64    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateItemRequest is the payload for creating a new item.
type CreateItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateItemRequest replaces both text fields of an existing item.
type UpdateItemRequest struct {
	ID          uint64 `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// itemPayload is the wire shape shared by create and update bodies. Pointers
// let the decoder tell a missing key from an empty string.
type itemPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (p itemPayload) complete() bool {
	return p.Name != nil && p.Description != nil
}
