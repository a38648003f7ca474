package store

import "errors"

// ErrItemNotFound is returned when a referenced item does not exist.
var ErrItemNotFound = errors.New("item not found")

// ErrNotOwner is returned when a caller attempts a transition on an item
// they do not own.
var ErrNotOwner = errors.New("caller does not own item")

// ErrAlreadyResolved is returned when an item has already left the open
// state; resolution is a one-way transition.
var ErrAlreadyResolved = errors.New("item already resolved")

// ErrUsernameTaken is returned when a username collides with an active
// account.
var ErrUsernameTaken = errors.New("username already taken")
