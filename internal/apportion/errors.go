package apportion

import "errors"

var (
	// ErrInvalidSeats is returned when the requested number of seats is negative.
	ErrInvalidSeats = errors.New("number of seats must be a non-negative integer")
	// ErrNoParties is returned when seats are requested but no parties are given.
	ErrNoParties = errors.New("at least one party is required to allocate seats")
	// ErrInvalidVotes is returned when a party has a negative vote count.
	ErrInvalidVotes = errors.New("vote counts must be non-negative integers")
	// ErrUnknownMethod is returned for a method outside the supported set.
	ErrUnknownMethod = errors.New("unknown apportionment method")
)
