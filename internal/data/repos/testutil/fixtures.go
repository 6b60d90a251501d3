package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studypath-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Ada Lovelace",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSubject(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Subject {
	tb.Helper()
	s := &types.Subject{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		Need:          "exam prep",
		DurationWeeks: 4,
		Level:         types.LevelBeginner,
		Intensity:     types.IntensityMedium,
		Language:      types.DefaultLanguage,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	return s
}

func SeedTopics(tb testing.TB, ctx context.Context, tx *gorm.DB, subject *types.Subject, titles ...string) []*types.Topic {
	tb.Helper()
	out := make([]*types.Topic, 0, len(titles))
	for i, title := range titles {
		t := &types.Topic{
			ID:        uuid.New(),
			SubjectID: subject.ID,
			UserID:    subject.UserID,
			Position:  i + 1,
			Title:     title,
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return out
	}
	if err := tx.WithContext(ctx).Create(&out).Error; err != nil {
		tb.Fatalf("seed topics: %v", err)
	}
	return out
}
