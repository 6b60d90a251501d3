package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type StreakView struct {
	Streak   int            `json:"streak"`
	Activity map[string]int `json:"activity"`
}

type StreakService interface {
	GetStreak(ctx context.Context, userID uuid.UUID, tz string) (*StreakView, error)
	// RecordActivity bumps today's counter (in tz) and returns the new view.
	RecordActivity(ctx context.Context, userID uuid.UUID, tz string) (*StreakView, error)
}

type streakService struct {
	log          *logger.Logger
	activityRepo repos.UserActivityRepo
	now          func() time.Time
}

func NewStreakService(log *logger.Logger, activityRepo repos.UserActivityRepo) StreakService {
	return &streakService{
		log:          log.With("service", "StreakService"),
		activityRepo: activityRepo,
		now:          time.Now,
	}
}

func (s *streakService) GetStreak(ctx context.Context, userID uuid.UUID, tz string) (*StreakView, error) {
	loc, err := resolveLocation(tz)
	if err != nil {
		return nil, err
	}
	row, err := s.activityRepo.Get(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	counts := row.Counts()
	return &StreakView{Streak: ComputeStreak(counts, s.now().In(loc)), Activity: counts}, nil
}

func (s *streakService) RecordActivity(ctx context.Context, userID uuid.UUID, tz string) (*StreakView, error) {
	loc, err := resolveLocation(tz)
	if err != nil {
		return nil, err
	}
	today := s.now().In(loc)
	row, err := s.activityRepo.Increment(dbctx.Context{Ctx: ctx}, userID, today.Format(types.ActivityDateLayout))
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}
	counts := row.Counts()
	return &StreakView{Streak: ComputeStreak(counts, today), Activity: counts}, nil
}

// ComputeStreak counts consecutive active days ending today. A day with no
// entry, or a zero count, ends the run; a quiet today means 0.
func ComputeStreak(counts map[string]int, today time.Time) int {
	if len(counts) == 0 {
		return 0
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 12, 0, 0, 0, today.Location())
	streak := 0
	for counts[day.Format(types.ActivityDateLayout)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func resolveLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apierr.BadRequest("unknown time zone %q", tz)
	}
	return loc, nil
}
