package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/queuectl/queuectl/job"
	qstore "github.com/queuectl/queuectl/store"
	"github.com/uptrace/bun"
)

// Store implements store.Store using a bun-backed SQLite database.
type Store struct {
	db *bun.DB
}

// New wraps an already-initialized *bun.DB (see Open/OpenMemory) as a
// store.Store.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

var _ qstore.Store = (*Store)(nil)

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, nj qstore.NewJob, now time.Time) (*job.Job, error) {
	model := fromNewJob(nj.ID, nj.Command, nj.MaxRetries, now)
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, qstore.ErrDuplicateID
		}
		return nil, err
	}
	return model.toJob(), nil
}

// AcquireOne implements store.Store using a single UPDATE ... WHERE id
// IN (subquery) statement so the leasable predicate is re-evaluated
// inside the same statement as the transition.
func (s *Store) AcquireOne(ctx context.Context, workerID string, leaseTTL time.Duration, now time.Time) (*job.Job, error) {
	staleBefore := now.Add(-leaseTTL)
	lockedUntil := now
	subQuery := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("id").
		WhereGroup("AND", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("state = ?", job.Pending).
				WhereOr("state = ? AND next_retry_at <= ?", job.Failed, now).
				WhereOr("state = ? AND locked_at < ?", job.Processing, staleBefore)
		}).
		Order("created_at ASC", "id ASC").
		Limit(1)

	var models []jobModel
	err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Processing).
		Set("attempts = attempts + 1").
		Set("locked_by = ?", workerID).
		Set("locked_at = ?", lockedUntil).
		Set("next_retry_at = NULL").
		Set("updated_at = ?", now).
		Where("id IN (?)", subQuery).
		Returning("*").
		Scan(ctx, &models)
	if err != nil {
		return nil, wrapBusy(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return models[0].toJob(), nil
}

// Complete implements store.Store.
func (s *Store) Complete(ctx context.Context, id, workerID string, output string, now time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Completed).
		Set("locked_by = NULL").
		Set("locked_at = NULL").
		Set("output = ?", output).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("state = ?", job.Processing).
		Where("locked_by = ?", workerID).
		Exec(ctx)
	if err != nil {
		return wrapBusy(err)
	}
	if !isAffected(res) {
		return qstore.ErrLeaseLost
	}
	return nil
}

// Fail implements store.Store.
//
// Attempts is not incremented here: AcquireOne already incremented it
// for the attempt that just concluded, and policy decisions are made
// against that post-increment value (see job.Job.Attempts).
func (s *Store) Fail(ctx context.Context, id, workerID string, lastError, output string, decision qstore.Decision, now time.Time) error {
	q := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("last_error = ?", lastError).
		Set("output = ?", output).
		Set("locked_by = NULL").
		Set("locked_at = NULL").
		Set("updated_at = ?", now)

	if delay, retry := decision.Delay(); retry {
		next := now.Add(delay)
		q = q.Set("state = ?", job.Failed).Set("next_retry_at = ?", next)
	} else {
		q = q.Set("state = ?", job.Dead).Set("next_retry_at = NULL")
	}

	res, err := q.
		Where("id = ?", id).
		Where("state = ?", job.Processing).
		Where("locked_by = ?", workerID).
		Exec(ctx)
	if err != nil {
		return wrapBusy(err)
	}
	if !isAffected(res) {
		return qstore.ErrLeaseLost
	}
	return nil
}

// Heartbeat implements store.Store.
func (s *Store) Heartbeat(ctx context.Context, id, workerID string, now time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("locked_at = ?", now).
		Where("id = ?", id).
		Where("state = ?", job.Processing).
		Where("locked_by = ?", workerID).
		Exec(ctx)
	if err != nil {
		return wrapBusy(err)
	}
	if !isAffected(res) {
		return qstore.ErrLeaseLost
	}
	return nil
}

// DLQRetry implements store.Store.
func (s *Store) DLQRetry(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Pending).
		Set("attempts = 0").
		Set("next_retry_at = NULL").
		Set("last_error = NULL").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("state = ?", job.Dead).
		Exec(ctx)
	if err != nil {
		return wrapBusy(err)
	}
	if isAffected(res) {
		return nil
	}
	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return qstore.ErrNotFound
	}
	return qstore.ErrInvalidTransition
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Where("id = ?", id).
		Count(ctx)
	if err != nil {
		return false, wrapBusy(err)
	}
	return count > 0, nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context, state job.State, limit int) ([]*job.Job, error) {
	var models []jobModel
	q := s.db.NewSelect().Model(&models).Order("created_at ASC")
	if state != job.Unknown {
		q = q.Where("state = ?", state)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, wrapBusy(err)
	}
	ret := make([]*job.Job, 0, len(models))
	for i := range models {
		ret = append(ret, models[i].toJob())
	}
	return ret, nil
}

// Counts implements store.Store.
func (s *Store) Counts(ctx context.Context) (map[job.State]int64, error) {
	var rows []struct {
		State job.State `bun:"state"`
		N     int64     `bun:"n"`
	}
	err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("state").
		ColumnExpr("count(*) AS n").
		Group("state").
		Scan(ctx, &rows)
	if err != nil {
		return nil, wrapBusy(err)
	}
	ret := make(map[job.State]int64, len(rows))
	for _, r := range rows {
		ret[r.State] = r.N
	}
	return ret, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func wrapBusy(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "SQLITE_BUSY") {
		return errors.Join(qstore.ErrUnavailable, err)
	}
	return err
}
