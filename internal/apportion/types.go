package apportion

import "math/big"

// Entry is one cell of the quotient table: the quotient a party reaches at a
// given divisor rank.
type Entry struct {
	Party    int
	Rank     int
	Quotient *big.Rat
}

// Result represents the outcome of a seat allocation.
// Winners holds the entries that were awarded a seat, highest quotient first.
type Result struct {
	Method  Method
	Seats   []int
	Winners []Entry
}

// Allocator describes the behaviour required from a seat allocation algorithm.
type Allocator interface {
	AllocateSeats(nbSeats int, parties []int) ([]int, error)
}
