package queue_test

import (
	"testing"

	"jofsarpur/internal/queue"
)

func TestParseEpisodeNumbering(t *testing.T) {
	tests := []struct {
		title  string
		number int
		count  int
	}{
		{"Þáttur 3 af 12", 3, 12},
		{"Krakkafréttir 10 af 40", 10, 40},
		{"4. kafli", 4, 0},
		{"3, kafli", 3, 0},
		{"12) kafli: Heimkoman", 12, 0},
		{"5 kafli", 0, 0},
		{"Landinn", 0, 0},
		{"Þáttur þrjú af tólf", 0, 0},
		{"Sérstakur 4. kafli", 0, 0},
	}
	for _, tc := range tests {
		number, count := queue.ParseEpisodeNumbering(tc.title)
		if got := deref(number); got != tc.number {
			t.Errorf("%q: number = %d, want %d", tc.title, got, tc.number)
		}
		if got := deref(count); got != tc.count {
			t.Errorf("%q: count = %d, want %d", tc.title, got, tc.count)
		}
	}
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
