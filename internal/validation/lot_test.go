package validation

import (
	"errors"
	"testing"

	"github.com/mmeshcher/lot-auction/internal/model"
)

func validSpec() model.LotSpec {
	return model.LotSpec{
		Name:      "Rashid Khan",
		Role:      "Bowler",
		Country:   "Afghanistan",
		BasePrice: 1_600_000,
		Stats:     model.Stats{Matches: 87},
	}
}

func TestValidateLotSpec(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.LotSpec)
		field  string
	}{
		{
			name:   "valid",
			mutate: func(*model.LotSpec) {},
		},
		{
			name:   "missing name",
			mutate: func(s *model.LotSpec) { s.Name = "  " },
			field:  "name",
		},
		{
			name:   "missing country",
			mutate: func(s *model.LotSpec) { s.Country = "" },
			field:  "country",
		},
		{
			name:   "zero base price",
			mutate: func(s *model.LotSpec) { s.BasePrice = 0 },
			field:  "basePrice",
		},
		{
			name:   "no matches",
			mutate: func(s *model.LotSpec) { s.Stats.Matches = 0 },
			field:  "stats.matches",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			err := ValidateLotSpec(spec)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("ValidateLotSpec() = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("ValidateLotSpec() = %v, want ErrValidation", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Fatalf("field error = %v, want field %q", err, tt.field)
			}
		})
	}
}

func TestMinIncrement(t *testing.T) {
	tests := []struct {
		current int64
		want    int64
	}{
		{current: 500_000, want: 100_000},
		{current: 1_000_000, want: 200_000},
		{current: 4_999_999, want: 200_000},
		{current: 5_000_000, want: 500_000},
		{current: 10_000_000, want: 1_000_000},
	}

	for _, tt := range tests {
		if got := MinIncrement(tt.current); got != tt.want {
			t.Fatalf("MinIncrement(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}
