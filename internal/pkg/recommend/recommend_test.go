package recommend

import (
	"context"
	"testing"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
)

type fakeSource struct {
	problems []models.Problem
	outcomes []AttemptOutcome

	gotMin, gotMax int
}

func (f *fakeSource) UnsolvedInRatingRange(userID uint, minRating, maxRating, limit int) ([]models.Problem, error) {
	f.gotMin, f.gotMax = minRating, maxRating
	return f.problems, nil
}

func (f *fakeSource) RecentOutcomes(userID uint, limit int) ([]AttemptOutcome, error) {
	return f.outcomes, nil
}

func TestRecommend_UsesRatingWindow(t *testing.T) {
	src := &fakeSource{}
	svc := NewService(src)

	if _, err := svc.Recommend(context.Background(), 1, 1500, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.gotMin != 1500-WindowBelow || src.gotMax != 1500+WindowAbove {
		t.Fatalf("unexpected window [%d, %d]", src.gotMin, src.gotMax)
	}
}

func TestWeakTags(t *testing.T) {
	outcomes := []AttemptOutcome{
		{Verdict: models.AttemptVerdictFailed, Tags: []string{"dp"}},
		{Verdict: models.AttemptVerdictFailed, Tags: []string{"dp"}},
		{Verdict: models.AttemptVerdictSolved, Tags: []string{"dp"}},
		{Verdict: models.AttemptVerdictSolved, Tags: []string{"greedy"}},
		{Verdict: models.AttemptVerdictSolved, Tags: []string{"greedy"}},
		{Verdict: models.AttemptVerdictSolved, Tags: []string{"greedy"}},
		{Verdict: models.AttemptVerdictFailed, Tags: []string{"fft"}},
	}

	weak := WeakTags(outcomes)
	if rate, ok := weak["dp"]; !ok || rate < 0.6 || rate > 0.7 {
		t.Fatalf("expected dp failure rate ~2/3, got %v (present=%v)", rate, ok)
	}
	if _, ok := weak["greedy"]; ok {
		t.Fatalf("tags with zero failures must not be weak")
	}
	if _, ok := weak["fft"]; ok {
		t.Fatalf("tags under the attempt threshold must be skipped")
	}
}

func TestRankProblems_WeakTagOutranksCloserRating(t *testing.T) {
	problems := []models.Problem{
		{Name: "close rating", Rating: 1600, Tags: "greedy"},
		{Name: "weak tag", Rating: 1750, Tags: "dp"},
	}
	weak := map[string]float64{"dp": 0.8}

	ranked := RankProblems(problems, 1500, weak)
	if ranked[0].Name != "weak tag" {
		t.Fatalf("expected weak-tag problem first, got %q", ranked[0].Name)
	}
}

func TestRankProblems_StableWithoutSignal(t *testing.T) {
	problems := []models.Problem{
		{Name: "a", Rating: 1600},
		{Name: "b", Rating: 1600},
	}
	ranked := RankProblems(problems, 1500, nil)
	if ranked[0].Name != "a" || ranked[1].Name != "b" {
		t.Fatalf("expected catalog order preserved on ties, got %q, %q", ranked[0].Name, ranked[1].Name)
	}
}
