package store

import "fmt"

// JobState describes the state of a transfer job.
type JobState int

const (
	JobCreated JobState = iota + 1
	JobRunning
	JobCompleted
	JobPartiallyFailed
	JobFailed
)

func MapJobState(s string) JobState {
	switch s {
	case "CREATED":
		return JobCreated
	case "RUNNING":
		return JobRunning
	case "COMPLETED":
		return JobCompleted
	case "PARTIALLY_FAILED":
		return JobPartiallyFailed
	case "FAILED":
		return JobFailed
	default:
		return 0
	}
}

func (v JobState) IsEnded() bool {
	return v == JobCompleted || v == JobPartiallyFailed || v == JobFailed
}

func (v JobState) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v JobState) String() string {
	switch v {
	case JobCreated:
		return "CREATED"
	case JobRunning:
		return "RUNNING"
	case JobCompleted:
		return "COMPLETED"
	case JobPartiallyFailed:
		return "PARTIALLY_FAILED"
	case JobFailed:
		return "FAILED"
	default:
		return ""
	}
}

func (v *JobState) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapJobState(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid job state data %s", s)
	}
	return nil
}
