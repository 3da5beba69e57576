package walks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ratingPtr(v int) *int { return &v }

func TestSummarize_RatedWalker(t *testing.T) {
	rows := []SummaryRow{
		{WalkerID: "w1", WalkerUsername: "bobwalker", RequestID: "r1", Rating: ratingPtr(5)},
		{WalkerID: "w1", WalkerUsername: "bobwalker", RequestID: "r2", Rating: ratingPtr(4)},
	}

	got := Summarize(rows)
	require.Len(t, got, 1)
	require.Equal(t, "bobwalker", got[0].WalkerUsername)
	require.Equal(t, 2, got[0].CompletedWalks)
	require.Equal(t, 2, got[0].TotalRatings)
	require.NotNil(t, got[0].AverageRating)
	require.Equal(t, 4.5, *got[0].AverageRating)
}

func TestSummarize_WalkerWithoutActivity(t *testing.T) {
	got := Summarize([]SummaryRow{{WalkerID: "w2", WalkerUsername: "evewalker"}})

	require.Len(t, got, 1)
	require.Equal(t, WalkerSummary{WalkerUsername: "evewalker"}, got[0])
	require.Nil(t, got[0].AverageRating)
}

func TestSummarize_CompletedWithoutRating(t *testing.T) {
	rows := []SummaryRow{
		{WalkerID: "w1", WalkerUsername: "bobwalker", RequestID: "r1"},
		{WalkerID: "w1", WalkerUsername: "bobwalker", RequestID: "r2", Rating: ratingPtr(3)},
	}

	got := Summarize(rows)
	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].CompletedWalks)
	require.Equal(t, 1, got[0].TotalRatings)
	require.Equal(t, 3.0, *got[0].AverageRating)
}

func TestSummarize_DeduplicatesJoinRows(t *testing.T) {
	rows := []SummaryRow{
		{WalkerID: "w1", WalkerUsername: "bobwalker", RequestID: "r1", Rating: ratingPtr(5)},
		{WalkerID: "w1", WalkerUsername: "bobwalker", RequestID: "r1", Rating: ratingPtr(5)},
		{WalkerID: "w1", WalkerUsername: "bobwalker", RequestID: "r2", Rating: ratingPtr(2)},
	}

	got := Summarize(rows)
	require.Equal(t, 2, got[0].CompletedWalks)
	require.Equal(t, 2, got[0].TotalRatings)
	require.Equal(t, 3.5, *got[0].AverageRating)
}

func TestSummarize_OrdinalOrderByUsername(t *testing.T) {
	rows := []SummaryRow{
		{WalkerID: "w3", WalkerUsername: "evewalker"},
		{WalkerID: "w1", WalkerUsername: "bobwalker"},
		{WalkerID: "w2", WalkerUsername: "Zoe"},
	}

	got := Summarize(rows)
	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.WalkerUsername)
	}
	// Mayúsculas antes que minúsculas (orden de bytes)
	require.Equal(t, []string{"Zoe", "bobwalker", "evewalker"}, names)
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestRoundedAverage(t *testing.T) {
	cases := []struct {
		name string
		sum  int
		n    int
		want float64
	}{
		{"exact", 10, 2, 5.0},
		{"half", 9, 2, 4.5},
		{"one third", 13, 3, 4.3},
		{"two thirds", 14, 3, 4.7},
		{"low third", 4, 3, 1.3},
		{"half up at hundredths", 89, 20, 4.5},
		{"single", 1, 1, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := roundedAverage(tc.sum, tc.n)
			require.NotNil(t, got)
			require.InDelta(t, tc.want, *got, 1e-9)
		})
	}

	require.Nil(t, roundedAverage(0, 0))
}
