// Package validation содержит функции валидации входных данных.
package validation

import (
	"fmt"
	"strings"

	"github.com/mmeshcher/lot-auction/internal/model"
)

// FieldError описывает ошибку валидации конкретного поля.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", model.ErrValidation, e.Field, e.Reason)
}

// Unwrap позволяет сравнивать ошибку с model.ErrValidation через errors.Is.
func (e *FieldError) Unwrap() error {
	return model.ErrValidation
}

// ValidateLotSpec проверяет обязательные поля лота: имя, страну, базовую цену и число матчей.
func ValidateLotSpec(spec model.LotSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return &FieldError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(spec.Country) == "" {
		return &FieldError{Field: "country", Reason: "is required"}
	}
	if spec.BasePrice <= 0 {
		return &FieldError{Field: "basePrice", Reason: "must be positive"}
	}
	if spec.Stats.Matches <= 0 {
		return &FieldError{Field: "stats.matches", Reason: "must be positive"}
	}
	return nil
}

// MinIncrement возвращает минимальный шаг ставки для текущей цены.
func MinIncrement(current int64) int64 {
	switch {
	case current < 1_000_000:
		return 100_000
	case current < 5_000_000:
		return 200_000
	case current < 10_000_000:
		return 500_000
	default:
		return 1_000_000
	}
}
