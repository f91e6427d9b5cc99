package leaderboard

import (
	"testing"
)

func TestParseCounterHash(t *testing.T) {
	pairs := parseCounterHash(map[string]string{
		"7":   "2",
		"3":   "1",
		"bad": "5",
		"9":   "zero",
		"11":  "0",
	})

	if len(pairs) != 2 {
		t.Fatalf("expected 2 usable pairs, got %d", len(pairs))
	}
	if pairs[0].id != 3 || pairs[0].inc != 1 {
		t.Fatalf("expected sorted output starting with (3,1), got (%d,%d)", pairs[0].id, pairs[0].inc)
	}
	if pairs[1].id != 7 || pairs[1].inc != 2 {
		t.Fatalf("expected (7,2) second, got (%d,%d)", pairs[1].id, pairs[1].inc)
	}
}

func TestBuildIncrementSQL(t *testing.T) {
	pairs := []counterPair{{id: 3, inc: 1}, {id: 7, inc: 2}}
	sql, args := buildIncrementSQL("profiles", "user_id", "arena_wins", pairs)

	want := "UPDATE profiles SET arena_wins = arena_wins + CASE user_id WHEN ? THEN ? WHEN ? THEN ? END WHERE user_id IN (?,?)"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got: %s\nwant: %s", sql, want)
	}
	if len(args) != 6 {
		t.Fatalf("expected 6 args, got %d", len(args))
	}
	if args[0] != uint64(3) || args[1] != int64(1) || args[4] != uint64(3) || args[5] != uint64(7) {
		t.Fatalf("unexpected args: %v", args)
	}
}
