package application

import (
	"sort"

	"coinbridge/internal/domain"
)

// ProjectAmounts applies the client's currency filter to the resolved
// amounts. Without a filter the amounts pass through untouched. With one,
// the result holds exactly one amount per requested currency: matches are
// kept (first wins if several coin types map to the same currency) and
// every unmatched filter currency is zero-filled. Output is sorted by
// symbol so responses are stable.
func ProjectAmounts(amounts []domain.Amount, filter []domain.Currency) []domain.Amount {
	var projected []domain.Amount
	if filter == nil {
		projected = append(projected, amounts...)
	} else {
		remaining := make(map[string]domain.Currency, len(filter))
		for _, currency := range filter {
			remaining[currency.Key()] = currency
		}
		for _, amount := range amounts {
			key := amount.Currency.Key()
			if _, ok := remaining[key]; !ok {
				continue
			}
			delete(remaining, key)
			projected = append(projected, amount)
		}
		for _, currency := range remaining {
			projected = append(projected, domain.Amount{Value: "0", Currency: currency})
		}
	}

	sort.Slice(projected, func(i, j int) bool {
		if projected[i].Currency.Symbol != projected[j].Currency.Symbol {
			return projected[i].Currency.Symbol < projected[j].Currency.Symbol
		}
		return projected[i].Currency.Key() < projected[j].Currency.Key()
	})
	return projected
}
