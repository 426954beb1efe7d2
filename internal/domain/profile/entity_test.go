package profile

import (
	"math"
	"reflect"
	"testing"
)

func TestRunningMean_MatchesArithmeticMean(t *testing.T) {
	ratings := []float64{5, 4, 3, 5, 1, 2.5, 4.5}

	var p VAProfile
	sum := 0.0
	for _, r := range ratings {
		p = p.ApplyRating(r)
		sum += r
	}

	want := sum / float64(len(ratings))
	if math.Abs(p.AverageRating-want) > 1e-9 {
		t.Fatalf("average = %v, want %v", p.AverageRating, want)
	}
	if p.TotalReviews != len(ratings) {
		t.Fatalf("total reviews = %d", p.TotalReviews)
	}
}

func TestRunningMean_FirstRating(t *testing.T) {
	if got := RunningMean(0, 1, 4); got != 4 {
		t.Fatalf("got %v", got)
	}
}

func TestValidRating(t *testing.T) {
	cases := map[float64]bool{0.5: false, 1: true, 3.3: true, 5: true, 5.1: false}
	for r, want := range cases {
		if got := ValidRating(r); got != want {
			t.Fatalf("ValidRating(%v) = %v", r, got)
		}
	}
}

func TestNormalizeSkills(t *testing.T) {
	got := NormalizeSkills([]string{" Data  Entry", "bookkeeping", "data entry", "", "Bookkeeping"})
	want := []string{"bookkeeping", "data entry"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
