package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypath-backend/internal/data/repos"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/apierr"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
)

// notFoundOr maps a missing row to a 404 for what and wraps anything else.
func notFoundOr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound(what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// ownedSubject loads a subject of userID. Someone else's subject is reported
// as missing.
func ownedSubject(dbc dbctx.Context, subjectRepo repos.SubjectRepo, userID, subjectID uuid.UUID) (*types.Subject, error) {
	subject, err := subjectRepo.GetByIDForUser(dbc, userID, subjectID)
	if err != nil {
		return nil, notFoundOr(err, "subject")
	}
	return subject, nil
}

func ownedTopic(dbc dbctx.Context, topicRepo repos.TopicRepo, userID, topicID uuid.UUID) (*types.Topic, error) {
	topic, err := topicRepo.GetByID(dbc, topicID)
	if err != nil {
		return nil, notFoundOr(err, "topic")
	}
	if topic.UserID != userID {
		return nil, apierr.NotFound("topic")
	}
	return topic, nil
}
