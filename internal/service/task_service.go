package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabforge/internal/model"
	"collabforge/internal/repository"
	"collabforge/pkg/logger"
)

const deadlineLayout = "2006-01-02"

// CreateTaskInput holds the fields a caller supplies for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	Deadline    string
	Progress    int
}

// UpdateTaskInput replaces the editable fields of a task. Nil Status or
// Progress keeps the stored value.
type UpdateTaskInput struct {
	Title       string
	Description string
	Category    string
	Deadline    string
	Status      *string
	Progress    *int
}

type TaskService struct {
	store *repository.Store
}

func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{store: store}
}

// Create inserts an open task owned by ownerID together with the owner's
// creator membership.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}
	if in.Progress < 0 || in.Progress > 100 {
		return nil, ErrInvalidProgress
	}
	if in.Progress == 100 {
		return nil, ErrProgressComplete
	}

	task := &model.Task{
		Title:       title,
		Description: in.Description,
		Category:    category,
		Deadline:    deadline,
		Status:      model.StatusOpen,
		Progress:    in.Progress,
		OwnerID:     ownerID,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return err
		}
		_, err := tx.Members.Add(ctx, task.ID, ownerID, model.RoleCreator)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("task_id", task.ID.String()).Str("owner_id", ownerID.String()).Msg("task created")
	return task, nil
}

// List returns every task, newest first.
func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.store.Tasks.List(ctx)
}

// Get returns a task visible to its owner and members.
func (s *TaskService) Get(ctx context.Context, taskID, callerID uuid.UUID) (*model.Task, error) {
	return authorizeTask(ctx, s.store, taskID, callerID)
}

// Update replaces the editable fields of a task. Only the owner may update,
// and a task the caller does not own is reported as not found.
func (s *TaskService) Update(ctx context.Context, taskID, callerID uuid.UUID, in UpdateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}

	var task *model.Task
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err = loadTask(ctx, tx, taskID, true)
		if err != nil {
			return err
		}
		if !task.IsOwner(callerID) {
			return ErrTaskNotFound
		}

		previous := task.Status
		task.Title = title
		task.Description = in.Description
		task.Category = category
		task.Deadline = deadline
		if in.Status != nil {
			if err := applyStatus(task, model.TaskStatus(*in.Status)); err != nil {
				return err
			}
		}
		// a task completed by this call already carries progress 100
		justCompleted := previous != model.StatusCompleted && task.Status == model.StatusCompleted
		if in.Progress != nil && !justCompleted {
			if err := applyProgress(task, *in.Progress); err != nil {
				return err
			}
		}

		if err := tx.Tasks.Update(ctx, task); err != nil {
			return err
		}
		if previous != model.StatusInProgress && task.Status == model.StatusInProgress {
			return promoteApproved(ctx, tx, task.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateStatus moves a task through its lifecycle. Entering in-progress
// turns every approved request into a membership; entering completed sets
// progress to 100.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, callerID uuid.UUID, status string) (*model.Task, error) {
	next := model.TaskStatus(status)
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	var task *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		task, err = loadTask(ctx, tx, taskID, true)
		if err != nil {
			return err
		}
		if !task.IsOwner(callerID) {
			return ErrNotTaskOwner
		}

		previous := task.Status
		if err := applyStatus(task, next); err != nil {
			return err
		}
		if previous == task.Status {
			return nil
		}
		if err := tx.Tasks.SetStatus(ctx, task.ID, task.Status, task.Progress); err != nil {
			return err
		}
		if task.Status == model.StatusInProgress {
			return promoteApproved(ctx, tx, task.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("task_id", task.ID.String()).Str("status", string(task.Status)).Msg("task status changed")
	return task, nil
}

// UpdateProgress sets the progress of a task. Owner and members may do so.
func (s *TaskService) UpdateProgress(ctx context.Context, taskID, callerID uuid.UUID, progress int) (*model.Task, error) {
	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}

	var task *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		task, err = loadTask(ctx, tx, taskID, true)
		if err != nil {
			return err
		}
		ok, err := tx.Members.CheckAccess(ctx, task, callerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTaskAccessDenied
		}

		previous := task.Progress
		if err := applyProgress(task, progress); err != nil {
			return err
		}
		if previous == task.Progress {
			return nil
		}
		return tx.Tasks.SetProgress(ctx, task.ID, task.Progress)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task and everything attached to it. Owner only.
func (s *TaskService) Delete(ctx context.Context, taskID, callerID uuid.UUID) error {
	task, err := loadTask(ctx, s.store, taskID, false)
	if err != nil {
		return err
	}
	if !task.IsOwner(callerID) {
		return ErrNotTaskOwner
	}

	if err := s.store.Tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	logger.Info().Str("task_id", taskID.String()).Msg("task deleted")
	return nil
}

// Claim assigns an open task without join requests to the caller in one
// step and gives the caller a membership.
func (s *TaskService) Claim(ctx context.Context, taskID, callerID uuid.UUID) (*model.Task, error) {
	var task *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		task, err = loadTask(ctx, tx, taskID, true)
		if err != nil {
			return err
		}
		if task.IsOwner(callerID) {
			return ErrOwnTaskClaim
		}
		if task.Status == model.StatusAccepted {
			return ErrTaskClaimed
		}
		if task.Status != model.StatusOpen {
			return ErrTaskNotOpen
		}

		requests, err := tx.Requests.CountByTask(ctx, task.ID)
		if err != nil {
			return err
		}
		if requests > 0 {
			return ErrTaskHasRequests
		}

		claimed, err := tx.Tasks.Claim(ctx, task.ID, callerID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrTaskClaimed
		}
		if _, err := tx.Members.Add(ctx, task.ID, callerID, model.RoleMember); err != nil {
			return err
		}

		task.Status = model.StatusAccepted
		assignee := callerID
		task.AssignedTo = &assignee
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("task_id", task.ID.String()).Str("user_id", callerID.String()).Msg("task claimed")
	return task, nil
}

// loadTask fetches a task and maps a missing row to ErrTaskNotFound. With
// lock set the row is locked for the rest of the transaction.
func loadTask(ctx context.Context, store *repository.Store, taskID uuid.UUID, lock bool) (*model.Task, error) {
	var (
		task *model.Task
		err  error
	)
	if lock {
		task, err = store.Tasks.GetForUpdate(ctx, taskID)
	} else {
		task, err = store.Tasks.GetByID(ctx, taskID)
	}
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

// authorizeTask loads a task and checks that callerID owns it or is a member.
func authorizeTask(ctx context.Context, store *repository.Store, taskID, callerID uuid.UUID) (*model.Task, error) {
	task, err := loadTask(ctx, store, taskID, false)
	if err != nil {
		return nil, err
	}
	ok, err := store.Members.CheckAccess(ctx, task, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTaskAccessDenied
	}
	return task, nil
}

// promoteApproved adds a member row for every approved request of the task.
// Existing memberships are left untouched.
func promoteApproved(ctx context.Context, tx *repository.Store, taskID uuid.UUID) error {
	userIDs, err := tx.Requests.ApprovedUserIDs(ctx, taskID)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if _, err := tx.Members.Add(ctx, taskID, userID, model.RoleMember); err != nil {
			return err
		}
	}
	return nil
}

// applyStatus validates a transition and applies it to task in memory.
func applyStatus(task *model.Task, next model.TaskStatus) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}
	// accepted is only reachable through Claim
	if next == model.StatusAccepted && task.Status != model.StatusAccepted {
		return ErrInvalidTransition
	}
	if !task.Status.CanTransition(next) {
		return ErrInvalidTransition
	}

	task.Status = next
	if next == model.StatusCompleted {
		task.Progress = 100
	}
	return nil
}

// applyProgress validates a progress value against the task's status and
// applies it in memory.
func applyProgress(task *model.Task, progress int) error {
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	if progress == task.Progress {
		return nil
	}
	if task.Status.Terminal() {
		return ErrProgressLocked
	}
	if progress == 100 {
		return ErrProgressComplete
	}
	task.Progress = progress
	return nil
}

func parseCategory(raw string) (model.Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.CategoryGeneral, nil
	}
	category := model.Category(strings.ToLower(raw))
	if !category.Valid() {
		return "", ErrInvalidCategory
	}
	return category, nil
}

func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if d, err := time.Parse(deadlineLayout, raw); err == nil {
		return &d, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, ErrInvalidDeadline
	}
	d := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}
