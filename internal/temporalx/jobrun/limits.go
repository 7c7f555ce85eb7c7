package jobrun

import (
	"time"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

// Limits tier the generation kinds: the soft limit bounds the provider
// call inside the handler, the hard limit is the activity
// start-to-close, always above soft so cleanup can run. RetryInitial
// seeds the queue's exponential backoff for transient failures.
type Limits struct {
	Soft         time.Duration
	Hard         time.Duration
	RetryInitial time.Duration
}

func LimitsFor(jobType string) Limits {
	switch jobType {
	case types.JobTypeOutlineGenerate:
		return Limits{Soft: 2 * time.Minute, Hard: 3 * time.Minute, RetryInitial: 30 * time.Second}
	case types.JobTypeModuleGenerate:
		return Limits{Soft: 3 * time.Minute, Hard: 4 * time.Minute, RetryInitial: 45 * time.Second}
	case types.JobTypeLessonGenerate:
		return Limits{Soft: 4 * time.Minute, Hard: 6 * time.Minute, RetryInitial: 60 * time.Second}
	case types.JobTypeAssessmentsGenerate:
		return Limits{Soft: 3 * time.Minute, Hard: 4 * time.Minute, RetryInitial: 45 * time.Second}
	default:
		return Limits{Soft: 3 * time.Minute, Hard: 5 * time.Minute, RetryInitial: 30 * time.Second}
	}
}

const MaxAttempts = 3
