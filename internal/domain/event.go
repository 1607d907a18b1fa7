package domain

const (
	EventNameSubmissionCreated = "submission.created"
)

// EventSubmissionCreated is published after a public submission is
// scored and stored.
type EventSubmissionCreated struct {
	OwnerID    string
	QuizTitle  string
	Submission Submission
}

func (EventSubmissionCreated) Name() string { return EventNameSubmissionCreated }
