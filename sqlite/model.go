package sqlite

import (
	"time"

	"github.com/queuectl/queuectl/job"
	"github.com/uptrace/bun"
)

type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`

	ID      string `bun:"id,pk"`
	Command string `bun:"command,notnull"`

	State      job.State `bun:"state,notnull,default:0"`
	Attempts   uint32    `bun:"attempts,notnull,default:0"`
	MaxRetries uint32    `bun:"max_retries,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	NextRetryAt *time.Time `bun:"next_retry_at,nullzero,default:null"`
	LockedBy    *string    `bun:"locked_by,nullzero,default:null"`
	LockedAt    *time.Time `bun:"locked_at,nullzero,default:null"`

	LastError *string `bun:"last_error,nullzero,default:null"`
	Output    *string `bun:"output,nullzero,default:null"`
}

func (jm *jobModel) toJob() *job.Job {
	return &job.Job{
		ID:          jm.ID,
		Command:     jm.Command,
		State:       jm.State,
		Attempts:    jm.Attempts,
		MaxRetries:  jm.MaxRetries,
		CreatedAt:   jm.CreatedAt,
		UpdatedAt:   jm.UpdatedAt,
		NextRetryAt: jm.NextRetryAt,
		LockedBy:    jm.LockedBy,
		LockedAt:    jm.LockedAt,
		LastError:   jm.LastError,
		Output:      jm.Output,
	}
}

func fromNewJob(id, command string, maxRetries uint32, now time.Time) *jobModel {
	return &jobModel{
		ID:         id,
		Command:    command,
		State:      job.Pending,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
