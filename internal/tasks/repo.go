package tasks

import (
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

// Claim one due task atomically using SKIP LOCKED.
// Works on Postgres.
func (r *Repo) Claim(workerID string) (*Task, error) {
	var task Task
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		// requeue stuck RUNNING tasks (worker died mid-delivery)
		tx.Exec(`
update tasks
set status='PENDING', locked_by=null, locked_at=null, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
`)

		// claim
		// FOR UPDATE SKIP LOCKED ensures no double-claim
		q := tx.Raw(`
with cte as (
  select id
  from tasks
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update tasks
set status='RUNNING', locked_by=?, locked_at=now(), attempts=attempts+1, updated_at=now()
where id in (select id from cte)
returning *;
`, workerID)

		return q.Scan(&task).Error
	})
	if err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, nil
	}
	return &task, nil
}

func (r *Repo) MarkDone(id uint64) error {
	return r.DB.Exec(`update tasks set status='DONE', updated_at=now() where id=?`, id).Error
}

func (r *Repo) MarkFailed(id uint64, errMsg string) error {
	return r.DB.Exec(`update tasks set status='FAILED', last_error=?, updated_at=now() where id=?`, errMsg, id).Error
}

func (r *Repo) RetryLater(id uint64, runAt time.Time, errMsg string) error {
	return r.DB.Exec(`
update tasks
set status='PENDING',
    run_at=?,
    locked_by=null,
    locked_at=null,
    last_error=?,
    updated_at=now()
where id=?`, runAt, errMsg, id).Error
}
