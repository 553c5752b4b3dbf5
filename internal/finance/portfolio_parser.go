package finance

import (
	"fmt"
	"strconv"
	"strings"
)

// Pick is a user's ticker choice as it arrives from the front end.
// The autocomplete widget submits "SYMBOL:Company Name"; a bare "SYMBOL" is also accepted.
type Pick struct {
	Symbol      string
	CompanyName string
}

// ParsePick splits a composite pick on the first ':'.
func ParsePick(input string) (Pick, error) {
	input = strings.TrimSpace(input)
	symbol, company, _ := strings.Cut(input, ":")
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Pick{}, fmt.Errorf("%w: empty symbol in %q", ErrInvalidAllocation, input)
	}
	if strings.ContainsAny(symbol, " \t") {
		return Pick{}, fmt.Errorf("%w: symbol %q contains whitespace", ErrInvalidAllocation, symbol)
	}
	return Pick{Symbol: symbol, CompanyName: strings.TrimSpace(company)}, nil
}

func (p Pick) String() string {
	if p.CompanyName == "" {
		return p.Symbol
	}
	return p.Symbol + ":" + p.CompanyName
}

// ParseAmount parses a whole-dollar allocation amount.
func ParseAmount(input string) (int, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	amount, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a whole number of dollars", ErrInvalidAllocation, input)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidAllocation, amount)
	}
	return amount, nil
}

// ParseAllocationRequest parses "SYMBOL[:Company Name] AMOUNT"; the amount is the last field
// so company names may contain spaces.
func ParseAllocationRequest(input string) (Pick, int, error) {
	input = strings.TrimSpace(input)
	idx := strings.LastIndexAny(input, " \t")
	if idx < 0 {
		return Pick{}, 0, fmt.Errorf("%w: expected SYMBOL AMOUNT, got %q", ErrInvalidAllocation, input)
	}
	pick, err := ParsePick(input[:idx])
	if err != nil {
		return Pick{}, 0, err
	}
	amount, err := ParseAmount(input[idx+1:])
	if err != nil {
		return Pick{}, 0, err
	}
	return pick, amount, nil
}
