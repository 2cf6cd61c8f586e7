// Package repository defines error types that are reused across multiple
// repositories and the services built on top of them. These sentinel
// values allow higher layers such as handlers to distinguish between
// different failure scenarios: ErrNotAuthorized indicates that the
// current user is not a party to the match they are operating on,
// ErrInvalidState that the operation is not valid for the match's
// current status, and the token errors classify why a reveal-token
// redemption was refused.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrNotAuthorized is returned when the caller attempts an operation
// on a match they are not a party to. Handlers should translate this
// into an HTTP 403 response.
var ErrNotAuthorized = errors.New("not authorized")

// ErrInvalidState is returned when an operation is not valid for the
// current match status, such as requesting completion twice or
// confirming a completion nobody requested. These failures indicate a
// logic or race error and must never be retried.
var ErrInvalidState = errors.New("invalid state")

// ErrAlreadyFinalized is returned when a state transition is attempted
// on a match that already reached a terminal status. Handlers should
// translate this into an HTTP 409 response.
var ErrAlreadyFinalized = errors.New("already finalized")

// ErrTokenExpired is returned when a reveal token is redeemed after
// its expiry. The token is dead; callers must generate a new one.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenAlreadyUsed is returned when a reveal token is redeemed a
// second time. Exactly one redemption ever succeeds per token.
var ErrTokenAlreadyUsed = errors.New("token already used")

// ErrAlreadyReviewed is returned when a party submits a second review
// for the same match. Handlers should translate this into 409.
var ErrAlreadyReviewed = errors.New("already reviewed")

// ErrReviewPending is returned by the account-level review blocker
// when the caller has a completed but unreviewed match and attempts
// to create a new engagement request.
var ErrReviewPending = errors.New("outstanding review pending")
