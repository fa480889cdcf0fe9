package http

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// moneyNumber renders cents as an exact JSON number, e.g. 400, 12.5, -3.07.
func moneyNumber(m core.Money) json.Number {
	return json.Number(m.Decimal().String())
}

// decimalNumber renders a derived amount rounded to cents.
func decimalNumber(d decimal.Decimal) json.Number {
	return json.Number(d.Round(2).String())
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(result)
}
