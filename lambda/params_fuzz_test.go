package lambda

import (
	"math"
	"testing"

	travelerrors "github.com/byteness/travelgate/errors"
)

// Run: go test -fuzz=FuzzParamsNumbers -fuzztime=30s ./lambda/...
func FuzzParamsNumbers(f *testing.F) {
	for _, seed := range []string{
		"", "5", " 5 ", "5.0", "5.5", "-3", "1e3", "1e400", "NaN", "-Inf", "+inf",
		"0x10", "1_000", "９", "5; DROP TABLE", "\x00", "\xff\xfe",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		p := Params{"cost": input, "duration": input}

		cost, err := p.Float("cost")
		if err != nil {
			if travelerrors.GetCode(err) != travelerrors.ErrCodeInvalidParameter {
				t.Fatalf("Float(%q) error code = %s", input, travelerrors.GetCode(err))
			}
		} else if math.IsNaN(cost) || math.IsInf(cost, 0) {
			t.Fatalf("Float(%q) = %v, want a finite number", input, cost)
		}

		days, err := p.Int("duration")
		if err != nil {
			if travelerrors.GetCode(err) != travelerrors.ErrCodeInvalidParameter {
				t.Fatalf("Int(%q) error code = %s", input, travelerrors.GetCode(err))
			}
			return
		}
		if p.Str("duration") == "" && days != 0 {
			t.Fatalf("Int(%q) = %d for an empty value", input, days)
		}
	})
}
