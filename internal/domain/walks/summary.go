package walks

import (
	"context"
	"sort"
	"strings"
)

// WalkerSummary calcula el resumen por paseador a partir de una sola lectura del store.
func (s *Service) WalkerSummary(ctx context.Context) ([]WalkerSummary, error) {
	rows, err := s.store.SummaryRows(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(rows), nil
}

type walkerAcc struct {
	username  string
	completed map[string]struct{}
	rated     map[string]int
}

// Summarize pliega las filas del outer join en una fila por paseador.
// Las solicitudes se cuentan una vez aunque el join las repita, y los ratings
// se deduplican por solicitud. El orden es por username (ordinal, case-sensitive).
func Summarize(rows []SummaryRow) []WalkerSummary {
	byWalker := make(map[string]*walkerAcc)
	order := make([]string, 0)

	for _, row := range rows {
		acc, ok := byWalker[row.WalkerID]
		if !ok {
			acc = &walkerAcc{
				username:  row.WalkerUsername,
				completed: make(map[string]struct{}),
				rated:     make(map[string]int),
			}
			byWalker[row.WalkerID] = acc
			order = append(order, row.WalkerID)
		}
		if row.RequestID == "" {
			continue
		}
		acc.completed[row.RequestID] = struct{}{}
		if row.Rating != nil {
			acc.rated[row.RequestID] = *row.Rating
		}
	}

	out := make([]WalkerSummary, 0, len(order))
	for _, id := range order {
		acc := byWalker[id]
		sum := 0
		for _, v := range acc.rated {
			sum += v
		}
		out = append(out, WalkerSummary{
			WalkerUsername: acc.username,
			CompletedWalks: len(acc.completed),
			TotalRatings:   len(acc.rated),
			AverageRating:  roundedAverage(sum, len(acc.rated)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.Compare(out[i].WalkerUsername, out[j].WalkerUsername) < 0
	})
	return out
}

// roundedAverage devuelve sum/n redondeado a un decimal (half-up), o nil si n == 0.
// Se calcula en décimas enteras para evitar errores de float (p.ej. 4.45).
func roundedAverage(sum, n int) *float64 {
	if n == 0 {
		return nil
	}
	tenths := (20*sum + n) / (2 * n)
	avg := float64(tenths) / 10
	return &avg
}
