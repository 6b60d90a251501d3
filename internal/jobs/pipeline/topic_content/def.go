package topic_content

import (
	"github.com/yungbote/studypath-backend/internal/platform/logger"
	"github.com/yungbote/studypath-backend/internal/services"
)

type Pipeline struct {
	log *logger.Logger
	gen services.GenerationService
}

func New(baseLog *logger.Logger, gen services.GenerationService) *Pipeline {
	return &Pipeline{
		log: baseLog.With("job", "topic_content"),
		gen: gen,
	}
}

func (p *Pipeline) Type() string { return "topic_content" }
