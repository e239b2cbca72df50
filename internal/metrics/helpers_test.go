package metrics

import (
	"time"

	"equitylens/pkg/contracts/domain"
)

func testPeriods(keys ...string) []domain.Period {
	out := make([]domain.Period, len(keys))
	for i, k := range keys {
		end, err := time.Parse("2006-01-02", k)
		if err != nil {
			panic(err)
		}
		out[i] = domain.Period{End: end, Freq: domain.FrequencyAnnual}
	}
	return out
}
