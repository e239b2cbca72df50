// Package identity parses and validates security identifiers and tags them
// with their listing market. Providers and cache keys always receive the
// normalized form.
package identity

import (
	"regexp"
	"strings"

	apperrors "equitylens/internal/errors"
)

// Market is the listing venue of a security.
type Market string

const (
	MarketShanghai Market = "SH"
	MarketShenzhen Market = "SZ"
	MarketBeijing  Market = "BJ"
	MarketHongKong Market = "HK"
	MarketUS       Market = "US"
)

// Security is a validated, normalized identifier plus its market tag.
type Security struct {
	Symbol string `json:"symbol"`
	Market Market `json:"market"`
}

var (
	// A-share codes are six digits; the leading digit determines the venue.
	ashareRe = regexp.MustCompile(`^[0-9]{6}$`)
	// Hong Kong tickers are four or five digits with an .HK suffix.
	hkRe = regexp.MustCompile(`^[0-9]{4,5}\.HK$`)
	// US tickers are one to five letters, optionally with a class suffix.
	usRe = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z])?$`)
)

// Parse validates an identifier and tags its market. It fails with a
// ValidationError for anything unrecognized so a typo surfaces before any
// provider call is spent on it.
func Parse(raw string) (Security, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return Security{}, apperrors.NewValidationError("identifier must not be empty")
	}

	switch {
	case ashareRe.MatchString(symbol):
		switch symbol[0] {
		case '6':
			return Security{Symbol: symbol, Market: MarketShanghai}, nil
		case '0', '3':
			return Security{Symbol: symbol, Market: MarketShenzhen}, nil
		case '4', '8':
			return Security{Symbol: symbol, Market: MarketBeijing}, nil
		default:
			return Security{}, apperrors.NewValidationError(
				"six-digit identifiers must start with 6 (Shanghai), 0/3 (Shenzhen), or 4/8 (Beijing)")
		}
	case hkRe.MatchString(symbol):
		return Security{Symbol: symbol, Market: MarketHongKong}, nil
	case usRe.MatchString(symbol):
		return Security{Symbol: symbol, Market: MarketUS}, nil
	}
	return Security{}, apperrors.NewValidationError(
		"unrecognized identifier format: want a 6-digit A-share code, NNNN.HK, or a US ticker")
}

// MustParse is Parse for known-good identifiers in tests and examples.
func MustParse(raw string) Security {
	sec, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return sec
}

// ParseAll validates a batch, failing on the first invalid identifier.
func ParseAll(raws []string) ([]Security, error) {
	out := make([]Security, 0, len(raws))
	for _, raw := range raws {
		sec, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, nil
}

// String implements fmt.Stringer.
func (s Security) String() string {
	return string(s.Market) + ":" + s.Symbol
}
