package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"chorus/internal/cleanup"
	"chorus/internal/notify"
	"chorus/internal/post"
	"chorus/internal/tasks"

	"gorm.io/gorm"
)

const (
	Path = "/internal/tasks/lifecycle-sweep"

	// sweepDedup keeps at most one pending sweep in the queue.
	sweepDedup = "lifecycle-sweep"
)

// Enqueuer is the slice of the task dispatcher the monitor needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue, targetPath string, payload any, opts ...tasks.Option) (uint64, error)
}

// Notifier delivers owner-facing lifecycle notices.
type Notifier interface {
	Send(ctx context.Context, userID uint64, kind, title, body string, dedupKey *string) error
}

// GroupStore applies lifecycle transitions. The Mark methods are guarded
// updates: they report false when another sweep already made the transition.
type GroupStore interface {
	ClearWarning(ctx context.Context, groupID uint64) error
	MarkWarned(ctx context.Context, groupID uint64, at time.Time) (bool, error)
	MarkCondemned(ctx context.Context, groupID uint64, at time.Time) (bool, error)
}

type GormGroupStore struct {
	DB *gorm.DB
}

func (s GormGroupStore) ClearWarning(ctx context.Context, groupID uint64) error {
	return s.DB.WithContext(ctx).Model(&post.Group{}).
		Where("id = ?", groupID).
		Update("warned_at", nil).Error
}

func (s GormGroupStore) MarkWarned(ctx context.Context, groupID uint64, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&post.Group{}).
		Where("id = ? AND warned_at is null", groupID).
		Update("warned_at", at)
	return res.RowsAffected > 0, res.Error
}

func (s GormGroupStore) MarkCondemned(ctx context.Context, groupID uint64, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&post.Group{}).
		Where("id = ? AND condemned_at is null", groupID).
		Update("condemned_at", at)
	return res.RowsAffected > 0, res.Error
}

// Monitor walks all live groups and drives the notify -> grace period ->
// delete state machine. Staleness is re-evaluated on every sweep from the
// stored timestamps, never cached, so resumed activity recovers a group
// without any explicit transition.
type Monitor struct {
	DB           *gorm.DB
	Groups       GroupStore // defaults to GormGroupStore over DB
	Dispatcher   Enqueuer
	QueueCleanup string
	QueueSweep   string
	Notifier     Notifier

	StaleAfter       time.Duration // long-term inactivity
	NeverActiveAfter time.Duration // created but never touched by a human
	GraceWindow      time.Duration
	SweepEvery       time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Monitor) groups() GroupStore {
	if m.Groups != nil {
		return m.Groups
	}
	return GormGroupStore{DB: m.DB}
}

// Sweep runs one pass. A group is never warned and deleted in the same run:
// condemnation requires a warnedAt older than the grace window, which a
// just-written warning can never be.
func (m *Monitor) Sweep(ctx context.Context) error {
	var groups []post.Group
	return m.DB.WithContext(ctx).
		Where("condemned_at is null").
		FindInBatches(&groups, 200, func(_ *gorm.DB, _ int) error {
			for i := range groups {
				if err := m.evaluate(ctx, &groups[i]); err != nil {
					log.Printf("lifecycle: group %d: %v\n", groups[i].ID, err)
				}
			}
			return nil
		}).Error
}

type action int

const (
	actNone action = iota
	actClearWarning
	actWarn
	actCondemn
)

func (m *Monitor) evaluate(ctx context.Context, g *post.Group) error {
	now := m.now()

	switch m.decide(g, now) {
	case actClearWarning:
		// Activity resumed; drop the warning so a future staleness spell
		// starts a fresh grace window.
		return m.groups().ClearWarning(ctx, g.ID)
	case actWarn:
		return m.warn(ctx, g, now)
	case actCondemn:
		return m.condemn(ctx, g, now)
	default:
		return nil
	}
}

// decide is the whole state machine: it only reads the group's stored
// timestamps against now.
func (m *Monitor) decide(g *post.Group, now time.Time) action {
	if !m.isStale(g, now) {
		if g.WarnedAt != nil {
			return actClearWarning
		}
		return actNone
	}

	switch {
	case g.WarnedAt == nil:
		return actWarn
	case now.Sub(*g.WarnedAt) >= m.GraceWindow:
		return actCondemn
	default:
		return actNone // warned, still inside the grace window
	}
}

func (m *Monitor) isStale(g *post.Group, now time.Time) bool {
	if g.LastHumanActivityAt != nil {
		return now.Sub(*g.LastHumanActivityAt) >= m.StaleAfter
	}
	return now.Sub(g.CreatedAt) >= m.NeverActiveAfter
}

func (m *Monitor) warn(ctx context.Context, g *post.Group, now time.Time) error {
	marked, err := m.groups().MarkWarned(ctx, g.ID, now)
	if err != nil {
		return err
	}
	if !marked {
		return nil // another sweep got here first
	}

	dedup := fmt.Sprintf("warn-%d-%d", g.ID, now.Unix())
	return m.Notifier.Send(ctx, g.OwnerID, notify.KindLifecycleWarning,
		"your circle has gone quiet",
		fmt.Sprintf("%q has had no activity for a while and will be removed in %d days unless someone posts.",
			g.Name, int(m.GraceWindow/(24*time.Hour))),
		&dedup)
}

// condemn is irreversible: mark the group, tell the owner, hand the heavy
// deletion to the cleanup processor.
func (m *Monitor) condemn(ctx context.Context, g *post.Group, now time.Time) error {
	marked, err := m.groups().MarkCondemned(ctx, g.ID, now)
	if err != nil {
		return err
	}
	if !marked {
		return nil // another sweep got here first
	}

	dedup := fmt.Sprintf("condemn-%d", g.ID)
	if err := m.Notifier.Send(ctx, g.OwnerID, notify.KindLifecycleCondemned,
		"your circle was removed",
		fmt.Sprintf("%q stayed inactive through its grace period and has been removed.", g.Name),
		&dedup); err != nil {
		log.Printf("lifecycle: condemn notice for group %d: %v\n", g.ID, err)
	}

	_, err = m.Dispatcher.Enqueue(ctx, m.QueueCleanup, cleanup.Path,
		cleanup.Payload{GroupID: g.ID, GroupName: g.Name})
	return err
}

// Schedule chains the next sweep through the queue. The dedup key keeps the
// chain single-threaded; calling this at boot bootstraps it.
func (m *Monitor) Schedule(ctx context.Context) error {
	every := m.SweepEvery
	if every <= 0 {
		every = 24 * time.Hour
	}
	_, err := m.Dispatcher.Enqueue(ctx, m.QueueSweep, Path, struct{}{},
		tasks.At(m.now().Add(every)), tasks.Dedup(sweepDedup))
	return err
}
