package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/studypath-backend/internal/platform/apierr"
)

func TestComputeStreak(t *testing.T) {
	today := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		name   string
		counts map[string]int
		want   int
	}{
		{"empty", map[string]int{}, 0},
		{"today and yesterday", map[string]int{"2024-03-10": 1, "2024-03-09": 1, "2024-03-08": 0}, 2},
		{"nothing today", map[string]int{"2024-03-09": 3, "2024-03-08": 1}, 0},
		{"zero today", map[string]int{"2024-03-10": 0, "2024-03-09": 1}, 0},
		{"gap before yesterday", map[string]int{"2024-03-10": 1, "2024-03-08": 5}, 1},
		{"stale", map[string]int{"2024-03-05": 1}, 0},
		{"month boundary", map[string]int{"2024-03-01": 1, "2024-02-29": 1, "2024-02-28": 2}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeStreak(tc.counts, today); got != tc.want {
				t.Fatalf("ComputeStreak = %d, want %d", got, tc.want)
			}
		})
	}

	leap := time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)
	if got := ComputeStreak(map[string]int{"2024-03-01": 1, "2024-02-29": 1, "2024-02-28": 2}, leap); got != 3 {
		t.Fatalf("across February: got %d, want 3", got)
	}
}

func TestStreakServiceRecordActivity(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "streak@example.com")

	clock := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	svc := NewStreakService(f.log, f.activity).(*streakService)
	svc.now = func() time.Time { return clock }

	if _, err := svc.RecordActivity(f.ctx, owner.ID, ""); err != nil {
		t.Fatalf("RecordActivity day 1: %v", err)
	}
	clock = clock.Add(24 * time.Hour)
	view, err := svc.RecordActivity(f.ctx, owner.ID, "")
	if err != nil {
		t.Fatalf("RecordActivity day 2: %v", err)
	}
	if view.Streak != 2 {
		t.Fatalf("streak = %d, want 2", view.Streak)
	}
	if view.Activity["2024-06-02"] != 1 || view.Activity["2024-06-01"] != 1 {
		t.Fatalf("activity = %v", view.Activity)
	}

	// 23:30 UTC on June 2 is already June 3 in Tokyo, with nothing logged yet.
	view, err = svc.GetStreak(f.ctx, owner.ID, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if view.Streak != 0 {
		t.Fatalf("tokyo streak = %d, want 0", view.Streak)
	}

	// Back in Honolulu it is still June 2.
	view, err = svc.GetStreak(f.ctx, owner.ID, "Pacific/Honolulu")
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if view.Streak != 2 {
		t.Fatalf("honolulu streak = %d, want 2", view.Streak)
	}

	_, err = svc.GetStreak(f.ctx, owner.ID, "Mars/Olympus")
	if apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("unknown tz: expected 400, got %v", err)
	}
}
