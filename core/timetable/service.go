package timetable

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

const maxSaveRetries = 3

type (
	// Repository stores the whole timetable as one versioned collection.
	Repository interface {
		// GetAll returns every stored entry in insertion order along with the collection version.
		GetAll(ctx context.Context) ([]Entry, int64, error)
		// SaveAll replaces the collection if its version still equals `version`, otherwise it fails with ErrStaleVersion.
		SaveAll(ctx context.Context, entries []Entry, version int64) error
	}

	// TeacherDirectory resolves entry owners. GetTeacher fails with ErrTeacherNotFound for unknown ids.
	TeacherDirectory interface {
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		QueryTeachers(ctx context.Context) ([]Teacher, error)
	}

	Service struct {
		repo     Repository
		teachers TeacherDirectory
		events   EventPublisher
		logger   core.Logger

		// serializes read-validate-write within the process; the repository version guards across processes
		mu sync.Mutex

		now     func() time.Time
		newID   func() string
		backoff func() backoff.BackOff
	}
)

func NewService(repo Repository, teachers TeacherDirectory, events EventPublisher, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		teachers: teachers,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return "tt-" + uuid.New().String() },
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxElapsedTime = 2 * time.Second
			return b
		},
	}
}

// mutate runs a read-modify-write cycle against the repository.
// `fn` receives a private copy of the stored entries and returns the collection to save.
// The whole cycle is retried when another writer saved in between; errors returned by `fn` are final.
func (svc *Service) mutate(ctx context.Context, fn func(entries []Entry) ([]Entry, error)) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	op := func() error {
		entries, version, err := svc.repo.GetAll(ctx)
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "loading timetable"))
		}
		next, err := fn(append([]Entry(nil), entries...))
		if err != nil {
			return backoff.Permanent(err)
		}
		if err = svc.repo.SaveAll(ctx, next, version); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				return err
			}
			return backoff.Permanent(errors.Wrap(err, "saving timetable"))
		}
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(svc.backoff(), maxSaveRetries), ctx)
	return backoff.Retry(op, b)
}

func (svc *Service) lunchConfig(ctx context.Context, teacherID string) (LunchConfig, error) {
	t, err := svc.teachers.GetTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, ErrTeacherNotFound) {
			return LunchConfig{}, nil
		}
		return LunchConfig{}, errors.Wrap(err, "getting teacher lunch config")
	}
	return t.Lunch, nil
}

func (svc *Service) teacherName(ctx context.Context, teacherID string) string {
	if t, err := svc.teachers.GetTeacher(ctx, teacherID); err == nil {
		return t.DisplayName()
	}
	return ""
}

// validate runs Validate and names the owner of a conflicting entry.
func (svc *Service) validate(ctx context.Context, candidate Entry, existing []Entry, lunch LunchConfig) error {
	err := Validate(candidate, existing, lunch)
	var terr *Error
	if errors.As(err, &terr) && terr.Conflicting != nil {
		terr.TeacherName = svc.teacherName(ctx, terr.Conflicting.TeacherID)
	}
	return err
}

func (svc *Service) publish(ctx context.Context, kind EventKind, entry Entry, caller core.Identity) {
	evt := Event{Kind: kind, Entry: entry, ActorID: caller.ID, OccurredAt: svc.now()}
	if err := svc.events.Publish(ctx, evt); err != nil {
		svc.logger.Warn("publishing timetable event", errors.Wrap(err, string(kind)), caller)
	}
}

// Create adds a new entry owned by the calling teacher.
func (svc *Service) Create(ctx context.Context, caller core.Identity, ne NewEntry) (Entry, error) {
	if !caller.IsTeacher() {
		return Entry{}, ErrForbidden
	}
	ne.clean()

	entry := Entry{
		ID:           svc.newID(),
		Subject:      ne.Subject,
		Day:          ne.Day,
		StartTime:    ne.StartTime,
		EndTime:      ne.EndTime,
		TeacherID:    caller.ID,
		IsLunchBreak: ne.IsLunchBreak,
		CreatedAt:    svc.now(),
	}
	if err := requireSubject(entry); err != nil {
		return Entry{}, err
	}

	err := svc.mutate(ctx, func(entries []Entry) ([]Entry, error) {
		lunch, err := svc.lunchConfig(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		if err := svc.validate(ctx, entry, entries, lunch); err != nil {
			return nil, err
		}
		return append(entries, entry), nil
	})
	if err != nil {
		return Entry{}, err
	}

	svc.publish(ctx, EventCreated, entry, caller)
	return entry, nil
}

// Update merges `patch` onto the caller's entry `id`.
// Schedule changes are re-validated; a cancellation toggle on its own never is.
func (svc *Service) Update(ctx context.Context, caller core.Identity, id string, patch EntryPatch) (Entry, error) {
	patch.clean()

	var prev, updated Entry
	err := svc.mutate(ctx, func(entries []Entry) ([]Entry, error) {
		idx := indexOf(entries, id)
		if idx < 0 {
			return nil, ErrNotFound
		}
		cur := entries[idx]
		if cur.TeacherID != caller.ID {
			return nil, ErrForbidden
		}
		if !patch.hasScheduleUpdate() && !patch.hasCancellationUpdate() {
			return nil, ErrNoChanges
		}

		next := patch.apply(cur, svc.now())
		if err := requireSubject(next); err != nil {
			return nil, err
		}
		if scheduleChanged(cur, next) {
			lunch, err := svc.lunchConfig(ctx, cur.TeacherID)
			if err != nil {
				return nil, err
			}
			if err := svc.validate(ctx, next, entries, lunch); err != nil {
				return nil, err
			}
		}

		entries[idx] = next
		prev, updated = cur, next
		return entries, nil
	})
	if err != nil {
		return Entry{}, err
	}

	kind := EventUpdated
	switch {
	case updated.IsCancelled && !prev.IsCancelled:
		kind = EventCancelled
	case !updated.IsCancelled && prev.IsCancelled:
		kind = EventRestored
	}
	svc.publish(ctx, kind, updated, caller)
	return updated, nil
}

// Delete removes the caller's entry `id`.
func (svc *Service) Delete(ctx context.Context, caller core.Identity, id string) error {
	var deleted Entry
	err := svc.mutate(ctx, func(entries []Entry) ([]Entry, error) {
		idx := indexOf(entries, id)
		if idx < 0 {
			return nil, ErrNotFound
		}
		if entries[idx].TeacherID != caller.ID {
			return nil, ErrForbidden
		}
		deleted = entries[idx]
		return append(entries[:idx], entries[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	svc.publish(ctx, EventDeleted, deleted, caller)
	return nil
}

// SaveLunchConfig runs `save` once `cfg` passes CheckLunchConfig.
// Both happen under the lock held by timetable writes, so no lecture can land in the new windows in between.
func (svc *Service) SaveLunchConfig(ctx context.Context, teacherID string, cfg LunchConfig, save func(ctx context.Context) error) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.CheckLunchConfig(ctx, teacherID, cfg); err != nil {
		return err
	}
	return save(ctx)
}

// CheckLunchConfig reports a LunchBreakConflict when a window of `cfg` overlaps one of the teacher's stored lectures.
func (svc *Service) CheckLunchConfig(ctx context.Context, teacherID string, cfg LunchConfig) error {
	entries, _, err := svc.repo.GetAll(ctx)
	if err != nil {
		return errors.Wrap(err, "loading timetable")
	}
	for i := range entries {
		e := entries[i]
		if e.TeacherID != teacherID || e.IsLunchBreak {
			continue
		}
		day, _ := NormalizeDay(e.Day)
		if w, ok := cfg.WindowFor(day); ok && Overlaps(w.Start, w.End, e.StartTime, e.EndTime) {
			return &Error{Kind: KindLunchBreakConflict, Day: day, LunchBreak: &w, Conflicting: &e}
		}
	}
	return nil
}

func indexOf(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
