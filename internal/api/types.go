package api

import (
	"errors"
	"math/big"
	"time"

	"github.com/eugenenazirov/seat-allocator/internal/apportion"
)

type methodRequest struct {
	Method string `json:"method"`
}

type partyRequest struct {
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

type allocateRequest struct {
	Method  string         `json:"method,omitempty"`
	Seats   *int           `json:"seats"`
	Votes   []int          `json:"votes,omitempty"`
	Parties []partyRequest `json:"parties,omitempty"`
}

// ballot returns the vote vector and, for named parties, their names.
func (req allocateRequest) ballot() ([]int, []string, error) {
	switch {
	case len(req.Votes) > 0 && len(req.Parties) > 0:
		return nil, nil, errors.New("provide either votes or parties, not both")
	case len(req.Parties) > 0:
		votes := make([]int, len(req.Parties))
		names := make([]string, len(req.Parties))
		for i, p := range req.Parties {
			votes[i] = p.Votes
			names[i] = p.Name
		}
		return votes, names, nil
	case req.Votes != nil:
		return req.Votes, nil, nil
	default:
		return nil, nil, errors.New("votes or parties is required")
	}
}

type partyAllocation struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Votes int    `json:"votes"`
	Seats int    `json:"seats"`
}

type winnerResponse struct {
	Seat     int    `json:"seat"`
	Party    int    `json:"party"`
	Name     string `json:"name,omitempty"`
	Rank     int    `json:"rank"`
	Quotient string `json:"quotient"`
	Decimal  string `json:"decimal"`
}

type allocateResponse struct {
	Method            apportion.Method  `json:"method"`
	Seats             int               `json:"seats"`
	Allocation        []partyAllocation `json:"allocation"`
	Winners           []winnerResponse  `json:"winners"`
	TotalSeats        int               `json:"totalSeats"`
	Cached            bool              `json:"cached"`
	CalculationTimeMs int64             `json:"calculationTimeMs"`
}

func newAllocateResponse(result apportion.Result, seats int, votes []int, names []string, cached bool, elapsed time.Duration) allocateResponse {
	nameOf := func(i int) string {
		if i < len(names) {
			return names[i]
		}
		return ""
	}

	resp := allocateResponse{
		Method:            result.Method,
		Seats:             seats,
		Allocation:        make([]partyAllocation, len(result.Seats)),
		Winners:           make([]winnerResponse, len(result.Winners)),
		Cached:            cached,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	for i, won := range result.Seats {
		resp.Allocation[i] = partyAllocation{
			Index: i,
			Name:  nameOf(i),
			Votes: votes[i],
			Seats: won,
		}
		resp.TotalSeats += won
	}
	for i, e := range result.Winners {
		resp.Winners[i] = winnerResponse{
			Seat:     i + 1,
			Party:    e.Party,
			Name:     nameOf(e.Party),
			Rank:     e.Rank,
			Quotient: e.Quotient.RatString(),
			Decimal:  e.Quotient.FloatString(3),
		}
	}
	return resp
}

func formatDivisors(divisors []*big.Rat) []string {
	out := make([]string, len(divisors))
	for i, d := range divisors {
		out[i] = d.RatString()
	}
	return out
}

type methodInfo struct {
	Name     apportion.Method `json:"name"`
	Divisors []string         `json:"divisors"`
}

type methodsResponse struct {
	Methods []methodInfo `json:"methods"`
}

type methodResponse struct {
	Method    apportion.Method `json:"method"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Message   string           `json:"message,omitempty"`
}

type divisorsResponse struct {
	Method   apportion.Method `json:"method"`
	Divisors []string         `json:"divisors"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
