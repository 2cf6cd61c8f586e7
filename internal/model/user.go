package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Account issuance and authentication live in a separate
// identity service; this service only reads users to resolve party
// names and the contact number the disclosure flow masks and reveals.
//
// Fields:
//  ID        – primary key identifier of the user.
//  FullName  – display name used in notification copy.
//  Phone     – contact number in whatever format the user registered.
//  IsActive  – whether the account is active.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    // users.id
	FullName  string    // users.full_name
	Phone     string    // users.phone
	IsActive  bool      // users.is_active
	CreatedAt time.Time // users.created_at
}
