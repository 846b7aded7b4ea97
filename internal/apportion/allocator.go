package apportion

import (
	"cmp"
	"container/heap"
	"math/big"
)

// HighestAverages allocates seats with the divisor sequence of a single method.
type HighestAverages struct {
	method Method
}

var _ Allocator = (*HighestAverages)(nil)

// New creates a highest-averages allocator for the given method.
func New(method Method) *HighestAverages {
	return &HighestAverages{method: method}
}

// AllocateSeats is a shorthand for New(method).AllocateSeats(nbSeats, parties).
func AllocateSeats(method Method, nbSeats int, parties []int) ([]int, error) {
	return New(method).AllocateSeats(nbSeats, parties)
}

// Method returns the method the allocator was created with.
func (h *HighestAverages) Method() Method {
	return h.method
}

// AllocateSeats returns the number of seats won by each party, indexed like
// parties.
func (h *HighestAverages) AllocateSeats(nbSeats int, parties []int) ([]int, error) {
	res, err := h.Allocate(nbSeats, parties)
	if err != nil {
		return nil, err
	}
	return res.Seats, nil
}

// Allocate distributes nbSeats among parties and also reports which quotient
// table entries won a seat.
//
// Each party's quotients strictly decrease with rank, so the table is never
// built in full: a heap holds the next unawarded entry of every party with
// votes and each seat goes to its top. This yields the same winners, in the
// same order, as sorting the table row by row until no top entry comes from
// the newest row. Parties with zero votes never enter the heap.
//
// When every party has zero votes nothing can win and all seats stay empty.
func (h *HighestAverages) Allocate(nbSeats int, parties []int) (Result, error) {
	if !h.method.Valid() {
		return Result{}, ErrUnknownMethod
	}
	if nbSeats < 0 {
		return Result{}, ErrInvalidSeats
	}

	contenders := 0
	for _, votes := range parties {
		if votes < 0 {
			return Result{}, ErrInvalidVotes
		}
		if votes > 0 {
			contenders++
		}
	}

	res := Result{
		Method:  h.method,
		Seats:   make([]int, len(parties)),
		Winners: []Entry{},
	}
	if nbSeats == 0 {
		return res, nil
	}
	if len(parties) == 0 {
		return Result{}, ErrNoParties
	}
	if contenders == 0 {
		return res, nil
	}

	first := Divisor(h.method, 0)
	next := make(frontier, 0, contenders)
	for party, votes := range parties {
		if votes > 0 {
			next = append(next, Entry{Party: party, Quotient: h.quotient(votes, first)})
		}
	}
	heap.Init(&next)

	res.Winners = make([]Entry, 0, nbSeats)
	for len(res.Winners) < nbSeats {
		top := next[0]
		res.Winners = append(res.Winners, top)
		res.Seats[top.Party]++

		rank := top.Rank + 1
		next[0] = Entry{
			Party:    top.Party,
			Rank:     rank,
			Quotient: h.quotient(parties[top.Party], Divisor(h.method, rank)),
		}
		heap.Fix(&next, 0)
	}
	return res, nil
}

// frontier is a heap of the best remaining entry per party, ordered by
// compareEntries.
type frontier []Entry

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return compareEntries(f[i], f[j]) < 0 }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(Entry)) }

func (f *frontier) Pop() any {
	old := *f
	e := old[len(old)-1]
	*f = old[:len(old)-1]
	return e
}

// quotient returns the ranking key of a party at one divisor. Huntington-Hill
// divisors are negative squares, so the key is votes^2 / |divisor|: the square
// of votes / sqrt(n(n+1)), which orders entries the same way.
func (h *HighestAverages) quotient(votes int, divisor *big.Rat) *big.Rat {
	q := new(big.Rat).SetInt64(int64(votes))
	if h.method == HuntingtonHill {
		q.Mul(q, q)
		return q.Quo(q, new(big.Rat).Neg(divisor))
	}
	return q.Quo(q, divisor)
}

// compareEntries orders by quotient descending, then party index and rank
// ascending.
func compareEntries(a, b Entry) int {
	if c := b.Quotient.Cmp(a.Quotient); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Party, b.Party); c != 0 {
		return c
	}
	return cmp.Compare(a.Rank, b.Rank)
}
