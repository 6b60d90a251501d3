package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Subject
	SubjectName   string
	SubjectNeed   string
	Level         string
	Intensity     string
	DurationWeeks int
	TopicCount    int
	Language      string
	SourceText    string
	// Topic
	TopicTitle    string
	QuestionCount int
	// Homework / documents
	Question string
	FileName string
}
