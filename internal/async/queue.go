package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document waiting to be processed.
type Job struct {
	Filename    string
	Data        []byte
	SubmittedAt time.Time
	TraceID     string
}

// Result is delivered to the result handler once a job finishes.
type Result struct {
	Job     Job
	Outcome *pipeline.Outcome
	Err     error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor is the part of *pipeline.Processor the queue drives.
type Processor interface {
	Process(ctx context.Context, filename string, data []byte) (*pipeline.Outcome, error)
}
