package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"collabforge/internal/model"
	"collabforge/internal/repository"
	"collabforge/pkg/logger"
)

// TeamContact is a member's contact card with hidden fields left empty.
type TeamContact struct {
	UserID      uuid.UUID        `json:"user_id"`
	Username    string           `json:"username"`
	Role        model.MemberRole `json:"role"`
	Email       string           `json:"email,omitempty"`
	Phone       string           `json:"phone,omitempty"`
	GithubURL   string           `json:"github_url,omitempty"`
	LinkedinURL string           `json:"linkedin_url,omitempty"`
}

type MembershipService struct {
	store              *repository.Store
	autoStartOnApprove bool
}

func NewMembershipService(store *repository.Store, autoStartOnApprove bool) *MembershipService {
	return &MembershipService{
		store:              store,
		autoStartOnApprove: autoStartOnApprove,
	}
}

// Request records a pending join request of callerID on a task. Any earlier
// request row for the pair, whatever its status, blocks a new one.
func (s *MembershipService) Request(ctx context.Context, taskID, callerID uuid.UUID) (*model.Request, error) {
	task, err := loadTask(ctx, s.store, taskID, false)
	if err != nil {
		return nil, err
	}
	if task.IsOwner(callerID) {
		return nil, ErrOwnTaskRequest
	}

	exists, err := s.store.Requests.Exists(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRequested
	}
	if task.Status == model.StatusAccepted {
		return nil, ErrTaskClaimed
	}
	if task.Status.Terminal() {
		return nil, ErrTaskClosed
	}

	req, inserted, err := s.store.Requests.CreatePending(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, ErrAlreadyRequested
	}

	logger.Info().Str("task_id", taskID.String()).Str("user_id", callerID.String()).Msg("join request created")
	return req, nil
}

// Approve accepts the pending request of userID. The request update, the
// membership insert and the optional move to in-progress commit together.
func (s *MembershipService) Approve(ctx context.Context, taskID, ownerID, userID uuid.UUID) (*model.Task, error) {
	var task *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		task, err = loadTask(ctx, tx, taskID, true)
		if err != nil {
			return err
		}
		if !task.IsOwner(ownerID) {
			return ErrNotTaskOwner
		}

		if err := resolvePending(ctx, tx, taskID, userID, model.RequestApproved); err != nil {
			return err
		}
		if _, err := tx.Members.Add(ctx, taskID, userID, model.RoleMember); err != nil {
			return err
		}

		if s.autoStartOnApprove && (task.Status == model.StatusOpen || task.Status == model.StatusAccepted) {
			task.Status = model.StatusInProgress
			if err := tx.Tasks.SetStatus(ctx, task.ID, task.Status, task.Progress); err != nil {
				return err
			}
			return promoteApproved(ctx, tx, task.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("task_id", taskID.String()).
		Str("user_id", userID.String()).
		Str("status", string(task.Status)).
		Msg("join request approved")
	return task, nil
}

// Reject declines the pending request of userID without creating a membership.
func (s *MembershipService) Reject(ctx context.Context, taskID, ownerID, userID uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := loadTask(ctx, tx, taskID, true)
		if err != nil {
			return err
		}
		if !task.IsOwner(ownerID) {
			return ErrNotTaskOwner
		}
		return resolvePending(ctx, tx, taskID, userID, model.RequestRejected)
	})
	if err != nil {
		return err
	}

	logger.Info().Str("task_id", taskID.String()).Str("user_id", userID.String()).Msg("join request rejected")
	return nil
}

func (s *MembershipService) ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]model.IncomingRequest, error) {
	return s.store.Requests.ListIncoming(ctx, ownerID)
}

func (s *MembershipService) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]model.OutgoingRequest, error) {
	return s.store.Requests.ListOutgoing(ctx, userID)
}

func (s *MembershipService) ListMemberships(ctx context.Context, userID uuid.UUID) ([]model.MembershipView, error) {
	return s.store.Members.ListByUser(ctx, userID)
}

// ListMembers returns the members of a task to its owner and members.
func (s *MembershipService) ListMembers(ctx context.Context, taskID, callerID uuid.UUID) ([]model.MemberView, error) {
	if _, err := authorizeTask(ctx, s.store, taskID, callerID); err != nil {
		return nil, err
	}
	return s.store.Members.ListByTask(ctx, taskID)
}

// TeamContacts returns each member's contact fields, keeping only those the
// member chose to show.
func (s *MembershipService) TeamContacts(ctx context.Context, taskID, callerID uuid.UUID) ([]TeamContact, error) {
	if _, err := authorizeTask(ctx, s.store, taskID, callerID); err != nil {
		return nil, err
	}

	rows, err := s.store.Members.Contacts(ctx, taskID)
	if err != nil {
		return nil, err
	}

	contacts := make([]TeamContact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, visibleContact(row))
	}
	return contacts, nil
}

func visibleContact(row model.MemberContact) TeamContact {
	contact := TeamContact{
		UserID:   row.UserID,
		Username: row.Username,
		Role:     row.Role,
	}
	if row.ShowEmail {
		contact.Email = row.Email
	}
	if row.ShowPhone {
		contact.Phone = row.Phone
	}
	if row.ShowGithub {
		contact.GithubURL = row.GithubURL
	}
	if row.ShowLinkedin {
		contact.LinkedinURL = row.LinkedinURL
	}
	return contact
}

func resolvePending(ctx context.Context, tx *repository.Store, taskID, userID uuid.UUID, status model.RequestStatus) error {
	req, err := tx.Requests.FindPending(ctx, taskID, userID)
	if errors.Is(err, repository.ErrRequestNotFound) {
		return ErrNoPendingRequest
	}
	if err != nil {
		return err
	}

	resolved, err := tx.Requests.Resolve(ctx, req.ID, status)
	if err != nil {
		return err
	}
	if !resolved {
		return ErrNoPendingRequest
	}
	return nil
}
