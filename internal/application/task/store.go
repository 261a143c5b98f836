// Package task owns the task collection of the active organization, the
// debounced search filter and the task mutations.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/state"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

// DefaultDebounce is the search quiet period when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// Loading operation names.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpStatus = "status"
	OpDelete = "delete"
)

// StatusOp is the loading key of a status change for id.
func StatusOp(id domain.TaskID) string { return OpStatus + ":" + id.String() }

// Store is the task state.
type Store struct {
	api      ports.TaskAPI
	notifier ports.Notifier
	log      zerolog.Logger

	// lifetime bounds debounced fetches; Close cancels it.
	lifetime context.Context
	cancel   context.CancelFunc
	search   *debouncer

	mu    sync.RWMutex
	org   domain.OrganizationID
	gen   uint64
	tasks []domain.Task
	input string
	query string
	// applied is the query the current collection was fetched for;
	// failed/fetchErr describe the latest fetch when it did not succeed.
	applied  string
	failed   string
	fetchErr error
	closed   bool

	// pending maps tasks with a status change in flight to its target.
	pending map[domain.TaskID]domain.Status

	loading state.Loading
}

// NewStore builds an empty store. debounce <= 0 selects DefaultDebounce.
func NewStore(api ports.TaskAPI, notifier ports.Notifier, log zerolog.Logger, debounce time.Duration) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		api:      api,
		notifier: notifier,
		log:      log.With().Str("component", "task").Logger(),
		lifetime: ctx,
		cancel:   cancel,
		search:   newDebouncer(debounce),
	}
}

// Close stops pending searches and cancels requests they started.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.search.Stop()
	s.cancel()
}

// Loading reports whether op is in flight.
func (s *Store) Loading(op string) bool { return s.loading.Active(op) }

// Tasks returns the list view.
func (s *Store) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Task(nil), s.tasks...)
}

// Task returns the task with id from the local collection.
func (s *Store) Task(id domain.TaskID) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// Column is one board bucket.
type Column struct {
	Status domain.Status
	Tasks  []domain.Task
}

// Board groups the collection by status in the fixed column order.
func (s *Store) Board() []Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := make([]Column, 0, len(domain.Statuses))
	for _, st := range domain.Statuses {
		col := Column{Status: st}
		for _, t := range s.tasks {
			if t.Status == st {
				col.Tasks = append(col.Tasks, t)
			}
		}
		cols = append(cols, col)
	}
	return cols
}

// Organization returns the organization the collection belongs to.
func (s *Store) Organization() domain.OrganizationID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.org
}

// Results returns the collection together with the query it was fetched
// for. The query lags the search input while a debounced fetch is pending.
func (s *Store) Results() (query string, tasks []domain.Task) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied, append([]domain.Task(nil), s.tasks...)
}

// FetchError returns the query of the latest fetch and its error when that
// fetch failed. The collection then still belongs to the previous query.
func (s *Store) FetchError() (query string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failed, s.fetchErr
}

// Search returns the raw input and the debounced query used for fetching.
func (s *Store) Search() (input, query string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input, s.query
}

// SetOrganization scopes the store to org: the collection and the search are
// cleared at once, then the new collection is fetched without debounce.
func (s *Store) SetOrganization(ctx context.Context, org domain.OrganizationID) error {
	s.search.Stop()
	s.mu.Lock()
	s.org = org
	s.gen++
	s.tasks = nil
	s.input = ""
	s.query = ""
	s.applied = ""
	s.failed, s.fetchErr = "", nil
	s.mu.Unlock()
	s.loading.End(OpList)
	return s.FetchAll(ctx)
}

// SetSearch records a keystroke. The fetch waits for the quiet period.
func (s *Store) SetSearch(input string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.input = input
	s.failed, s.fetchErr = "", nil
	s.mu.Unlock()
	s.search.Trigger(func() {
		s.mu.Lock()
		if s.input != input || s.closed {
			s.mu.Unlock()
			return
		}
		s.query = input
		s.mu.Unlock()
		_ = s.FetchAll(s.lifetime)
	})
}

// FetchAll loads the collection for the active organization and current
// query. Only the response of the latest request is applied.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	if s.org.IsZero() {
		s.tasks = nil
		s.mu.Unlock()
		return nil
	}
	s.gen++
	org, query, gen := s.org, s.query, s.gen
	s.mu.Unlock()

	s.loading.Set(OpList, true)
	tasks, err := s.api.ListTasks(ctx, org, query)

	s.mu.Lock()
	current := s.gen == gen
	if current {
		if err == nil {
			s.tasks = tasks
			s.applied = query
			s.failed, s.fetchErr = "", nil
		} else {
			s.failed, s.fetchErr = query, err
		}
	}
	s.mu.Unlock()
	if !current {
		s.log.Debug().Str("search", query).Msg("discarding stale task list")
		return err
	}
	s.loading.End(OpList)
	if err != nil {
		s.log.Warn().Err(err).Msg("fetch tasks")
		state.Surface(s.notifier, err)
		return err
	}
	s.log.Debug().Int("count", len(tasks)).Str("search", query).Msg("tasks fetched")
	return nil
}

// Create validates in, posts it and appends the created task locally.
func (s *Store) Create(ctx context.Context, in domain.TaskInput, onSuccess func(domain.Task)) error {
	if err := state.ValidateStruct(in); err != nil {
		state.Surface(s.notifier, err)
		return err
	}
	org := s.Organization()
	if org.IsZero() {
		state.Surface(s.notifier, domerrors.ErrNoActiveOrganization)
		return domerrors.ErrNoActiveOrganization
	}
	if !s.loading.TryBegin(OpCreate) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpCreate)

	in.OrganizationID = org
	created, err := s.api.CreateTask(ctx, in)
	if err != nil {
		s.log.Warn().Err(err).Msg("create task")
		state.Surface(s.notifier, err)
		return err
	}
	s.mu.Lock()
	if s.org == created.OrganizationID {
		s.tasks = append(s.tasks, *created)
	}
	s.mu.Unlock()
	s.log.Info().Str("task", created.ID.String()).Msg("task created")
	state.Succeed(s.notifier, "Task Created Successfully")
	if onSuccess != nil {
		onSuccess(*created)
	}
	return nil
}

// UpdateStatus changes only the status of id. The local copy is patched after
// the server confirms. A call for the status the task already has, or for
// the target of the change already in flight for id, does nothing; a
// different target while one is in flight fails with ErrBusy. Changes to
// different tasks run independently.
func (s *Store) UpdateStatus(ctx context.Context, id domain.TaskID, status domain.Status) error {
	if !status.Valid() {
		err := domerrors.FieldErrors{"status": {fmt.Sprintf("%q is not a valid choice.", status)}}
		state.Surface(s.notifier, err)
		return err
	}
	t, ok := s.Task(id)
	if !ok {
		state.Surface(s.notifier, domerrors.ErrTaskNotFound)
		return fmt.Errorf("update status of %s: %w", id, domerrors.ErrTaskNotFound)
	}
	if t.Status == status {
		return nil
	}
	s.mu.Lock()
	if target, busy := s.pending[id]; busy {
		s.mu.Unlock()
		if target == status {
			return nil
		}
		if s.notifier != nil {
			s.notifier.Error("Task status update already in progress")
		}
		return fmt.Errorf("update status of %s: %w", id, domerrors.ErrBusy)
	}
	if s.pending == nil {
		s.pending = make(map[domain.TaskID]domain.Status)
	}
	s.pending[id] = status
	s.mu.Unlock()
	op := StatusOp(id)
	s.loading.Set(op, true)
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		s.loading.End(op)
	}()

	if _, err := s.api.UpdateTaskStatus(ctx, id, t.OrganizationID, status); err != nil {
		s.log.Warn().Err(err).Msg("update task status")
		state.Surface(s.notifier, err)
		return err
	}
	s.patch(id, func(t *domain.Task) { t.Status = status })
	state.Succeed(s.notifier, "Task status updated")
	return nil
}

// Update applies in to id and replaces the local copy with the server's.
func (s *Store) Update(ctx context.Context, id domain.TaskID, in domain.TaskInput, onSuccess func(domain.Task)) error {
	if err := state.ValidateStruct(in); err != nil {
		state.Surface(s.notifier, err)
		return err
	}
	t, ok := s.Task(id)
	if !ok {
		state.Surface(s.notifier, domerrors.ErrTaskNotFound)
		return fmt.Errorf("update %s: %w", id, domerrors.ErrTaskNotFound)
	}
	if !s.loading.TryBegin(OpUpdate) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpUpdate)

	in.OrganizationID = t.OrganizationID
	updated, err := s.api.UpdateTask(ctx, id, in)
	if err != nil {
		s.log.Warn().Err(err).Msg("update task")
		state.Surface(s.notifier, err)
		return err
	}
	s.patch(id, func(t *domain.Task) { *t = *updated })
	state.Succeed(s.notifier, "Task Updated Successfully")
	if onSuccess != nil {
		onSuccess(*updated)
	}
	return nil
}

// Delete removes id on the server and then locally.
func (s *Store) Delete(ctx context.Context, id domain.TaskID) error {
	if !s.loading.TryBegin(OpDelete) {
		return domerrors.ErrBusy
	}
	defer s.loading.End(OpDelete)

	if err := s.api.DeleteTask(ctx, id); err != nil {
		s.log.Warn().Err(err).Msg("delete task")
		state.Surface(s.notifier, err)
		return err
	}
	s.mu.Lock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	state.Succeed(s.notifier, "Task Deleted Successfully")
	return nil
}

// Clear drops the collection and the search and detaches from any
// organization.
func (s *Store) Clear() {
	s.search.Stop()
	s.mu.Lock()
	s.org = 0
	s.gen++
	s.tasks = nil
	s.input = ""
	s.query = ""
	s.applied = ""
	s.failed, s.fetchErr = "", nil
	s.mu.Unlock()
	s.loading.End(OpList)
}

func (s *Store) patch(id domain.TaskID, fn func(*domain.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			fn(&s.tasks[i])
			return
		}
	}
}
