package apportion

import (
	"fmt"
	"iter"
	"math/big"
)

// Divisor returns the divisor of method m at the zero-based rank.
//
//	DHondt          rank + 1
//	SainteLague     2*rank + 1
//	Imperiali       (rank + 2) / 2
//	HuntingtonHill  -(rank + 1)(rank + 2)
//	Danish          3*rank + 1
//
// The Huntington-Hill value is the negated square of the textbook divisor
// sqrt(n(n+1)) with n = rank + 1. It is kept as is for compatibility; the
// allocator ranks Huntington-Hill quotients by their square instead.
//
// Divisor panics for a negative rank or an unknown method.
func Divisor(m Method, rank int) *big.Rat {
	if rank < 0 {
		panic(fmt.Sprintf("apportion: negative divisor rank %d", rank))
	}
	i := int64(rank)
	switch m {
	case DHondt:
		return new(big.Rat).SetInt64(i + 1)
	case SainteLague:
		return new(big.Rat).SetInt64(2*i + 1)
	case Imperiali:
		return big.NewRat(i+2, 2)
	case HuntingtonHill:
		d := new(big.Int).Mul(big.NewInt(i+1), big.NewInt(i+2))
		return new(big.Rat).SetInt(d.Neg(d))
	case Danish:
		return new(big.Rat).SetInt64(3*i + 1)
	default:
		panic(fmt.Sprintf("apportion: divisor requested for %s", m))
	}
}

// Divisors returns the infinite sequence of (rank, divisor) pairs for m.
// Every range over the sequence starts again at rank 0.
func (m Method) Divisors() iter.Seq2[int, *big.Rat] {
	return func(yield func(int, *big.Rat) bool) {
		for rank := 0; ; rank++ {
			if !yield(rank, Divisor(m, rank)) {
				return
			}
		}
	}
}

// Take returns the first n divisors of m.
func Take(m Method, n int) []*big.Rat {
	out := make([]*big.Rat, 0, max(n, 0))
	if n <= 0 {
		return out
	}
	for _, d := range m.Divisors() {
		out = append(out, d)
		if len(out) == n {
			break
		}
	}
	return out
}

// DivisorSequence is a cursor over the divisors of a method for callers that
// step through ranks by hand.
type DivisorSequence struct {
	method Method
	rank   int
}

// NewDivisorSequence returns a sequence positioned at rank 0.
func NewDivisorSequence(m Method) *DivisorSequence {
	return &DivisorSequence{method: m}
}

// Next returns the divisor at the current rank and advances the cursor.
func (s *DivisorSequence) Next() *big.Rat {
	d := Divisor(s.method, s.rank)
	s.rank++
	return d
}

// Rank is the rank the next call to Next will produce.
func (s *DivisorSequence) Rank() int {
	return s.rank
}
