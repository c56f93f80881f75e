package merge

import "time"

// Status tracks a merge job through its pipeline stages.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusFetching      Status = "fetching"
	StatusNormalizing   Status = "normalizing"
	StatusConcatenating Status = "concatenating"
	StatusEncoding      Status = "encoding"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a point-in-time snapshot of a merge for one post.
type Job struct {
	PostID       string
	Status       Status
	Percent      float64
	ClipCount    int
	ArtifactPath string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// percent windows: fetching occupies the first slice of the bar, the
// transcode stages the rest.
const fetchPercentEnd = 10.0

func transcodePercent(fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fetchPercentEnd + fraction*(100-fetchPercentEnd)
}
