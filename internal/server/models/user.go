// Package models defines server-side data models persisted in the database.
package models

type User struct {
	ID    int64
	Login string
	Email string
	// Password is the client-computed credential hash, stored uppercase.
	// The server never sees a plaintext password.
	Password string
}
