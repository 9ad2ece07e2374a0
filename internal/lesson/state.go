package lesson

// State is how far the transcription pipeline got for a lesson.
type State int

const (
	NoTranscript State = iota
	TranscriptStored
	Summarized
	FeedbackComplete
)

func (s State) String() string {
	switch s {
	case NoTranscript:
		return "no_transcript"
	case TranscriptStored:
		return "transcript_stored"
	case Summarized:
		return "summarized"
	case FeedbackComplete:
		return "feedback_complete"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DeriveState: feedback only counts once the summary exists, and is complete
// when every speaker in t has a row.
func DeriveState(t *Transcript, hasSummary bool, feedback []Feedback) State {
	if t == nil {
		return NoTranscript
	}
	if !hasSummary {
		return TranscriptStored
	}
	have := make(map[int64]bool, len(feedback))
	for _, f := range feedback {
		have[f.UserID] = true
	}
	for _, uid := range t.Speakers() {
		if !have[uid] {
			return Summarized
		}
	}
	return FeedbackComplete
}
