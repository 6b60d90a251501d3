package prompts

import "github.com/yungbote/studypath-backend/internal/platform/llm"

type SyllabusOutput struct {
	Topics []string `json:"topics" jsonschema:"required,description=Ordered topic titles from first to last"`
}

type QuizItem struct {
	Question     string   `json:"question" jsonschema:"required"`
	Options      []string `json:"options" jsonschema:"required,minItems=4,maxItems=4"`
	CorrectIndex int      `json:"correct_index" jsonschema:"required,minimum=0,maximum=3"`
	Explanation  string   `json:"explanation" jsonschema:"required"`
}

type QuizOutput struct {
	Questions []QuizItem `json:"questions" jsonschema:"required"`
}

var schemas = map[string]func() map[string]any{
	"syllabus": llm.SchemaFor[SyllabusOutput],
	"quiz":     llm.SchemaFor[QuizOutput],
}
