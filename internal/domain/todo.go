package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Todo is a single to-do item owned by the user who created it.
type Todo struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TodoIDLength is the length of a to-do identifier: 24 hex characters.
const TodoIDLength = 24

// NewTodoID generates a 24-character lowercase hex identifier.
func NewTodoID() string {
	var b [TodoIDLength / 2]byte
	// rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
