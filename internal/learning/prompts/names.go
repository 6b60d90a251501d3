package prompts

type PromptName string

const (
	PromptSyllabus PromptName = "syllabus"

	// One per content mode
	PromptContentExplain     PromptName = "content_explain"
	PromptContentDemonstrate PromptName = "content_demonstrate"
	PromptContentTry         PromptName = "content_try"
	PromptContentApply       PromptName = "content_apply"

	PromptQuiz PromptName = "quiz"

	PromptTutorChat    PromptName = "tutor_chat"
	PromptHomeworkScan PromptName = "homework_scan"
	PromptPDFExtract   PromptName = "pdf_extract"
)

// ContentPrompt maps a content mode to its prompt.
func ContentPrompt(mode string) (PromptName, bool) {
	switch mode {
	case "explain":
		return PromptContentExplain, true
	case "demonstrate":
		return PromptContentDemonstrate, true
	case "try":
		return PromptContentTry, true
	case "apply":
		return PromptContentApply, true
	default:
		return "", false
	}
}
