package domain

// AnswerResult is the outcome of synthesis. GenerationError is set iff the model call
// did not produce an answer; AnswerText is empty in that case.
type AnswerResult struct {
	AnswerText      string
	CitedSources    ContextBundle
	GenerationError error
	NoContext       bool // bundle was empty, the model had nothing to ground on
	Model           string
	PromptTokens    int
	TotalTokens     int
}

// Failed reports whether synthesis failed.
func (r AnswerResult) Failed() bool { return r.GenerationError != nil }
