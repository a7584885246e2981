package service

import (
	"context"
	"strings"

	"github.com/webforge-labs/webforge-backend/internal/apperr"
	"github.com/webforge-labs/webforge-backend/internal/logging"
	"github.com/webforge-labs/webforge-backend/internal/projects/domain"
	"github.com/webforge-labs/webforge-backend/internal/sandbox"
)

// Store is the persistence surface the coordinator needs. Implemented by
// repository.Repo; tests use an in-memory fake.
type Store interface {
	Create(ctx context.Context, userID, name string, description *string) (*domain.Project, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Project, error)
	List(ctx context.Context, userID string) ([]domain.Project, error)
	UpdateMeta(ctx context.Context, userID, id string, name, description *string) (*domain.Project, error)
	Activate(ctx context.Context, id, sandboxID string) (*domain.Project, error)
	MarkError(ctx context.Context, id string) error
	MarkStopped(ctx context.Context, userID, id string) (*domain.Project, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// Lifecycle keeps the project row and its remote sandbox consistent
// across create, update, stop and delete.
type Lifecycle struct {
	store Store
	gw    sandbox.Gateway
	log   *logging.Logger
}

func NewLifecycle(store Store, gw sandbox.Gateway, log *logging.Logger) *Lifecycle {
	return &Lifecycle{store: store, gw: gw, log: log}
}

// CreateResult carries the activated project and its dev-server URL.
type CreateResult struct {
	Project *domain.Project
	URL     string
}

// Create inserts the row in the creating state, then provisions a sandbox
// and starts its dev server. On success the row is activated with the
// sandbox id in a single update. On failure the row is marked error and
// kept, so the user retains an inspectable failed project.
func (s *Lifecycle) Create(ctx context.Context, userID, name string, description *string) (*CreateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("project name is required")
	}

	p, err := s.store.Create(ctx, userID, name, description)
	if err != nil {
		return nil, err
	}

	h, err := s.gw.Provision(ctx)
	if err != nil {
		s.fail(ctx, p.ID, "provision", err)
		return nil, apperr.Provisioning("failed to create sandbox", err)
	}

	url, err := s.gw.Start(ctx, h)
	if err != nil {
		s.fail(ctx, p.ID, "start", err)
		return nil, apperr.Provisioning("failed to start dev server", err)
	}

	activated, err := s.store.Activate(ctx, p.ID, h.SandboxID)
	if err != nil {
		// The sandbox is already running but its id was never recorded;
		// tear it down so it does not leak.
		s.terminate(ctx, p.ID, h.SandboxID)
		s.fail(ctx, p.ID, "activate", err)
		return nil, apperr.Provisioning("failed to attach sandbox", err)
	}

	return &CreateResult{Project: activated, URL: url}, nil
}

func (s *Lifecycle) fail(ctx context.Context, projectID, step string, cause error) {
	s.log.Error("sandbox provisioning failed",
		"project_id", projectID, "step", step, "error", cause)
	if err := s.store.MarkError(ctx, projectID); err != nil {
		s.log.Error("failed to mark project as errored",
			"project_id", projectID, "error", err)
	}
}

func (s *Lifecycle) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	return s.store.GetByID(ctx, userID, id)
}

func (s *Lifecycle) List(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.store.List(ctx, userID)
}

// Update applies merge semantics: nil (or blank name) fields keep their
// prior value. An empty update still bumps updated_at.
func (s *Lifecycle) Update(ctx context.Context, userID, id string, name, description *string) (*domain.Project, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}
	return s.store.UpdateMeta(ctx, userID, id, name, description)
}

// Stop terminates the paired sandbox (best effort) and parks the row in
// the stopped state with the sandbox detached.
func (s *Lifecycle) Stop(ctx context.Context, userID, id string) (*domain.Project, error) {
	p, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.SandboxID != nil {
		s.terminate(ctx, p.ID, *p.SandboxID)
	}

	return s.store.MarkStopped(ctx, userID, id)
}

// Delete authorizes the row, tears down the sandbox if one is attached
// and removes the row. Sandbox termination failures are logged and
// swallowed: the sandbox may legitimately already be dead or expired,
// and delete always succeeds from the database's perspective.
func (s *Lifecycle) Delete(ctx context.Context, userID, id string) error {
	p, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if p.SandboxID != nil {
		s.terminate(ctx, p.ID, *p.SandboxID)
	}

	ok, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("project")
	}
	return nil
}

func (s *Lifecycle) terminate(ctx context.Context, projectID, sandboxID string) {
	h, err := s.gw.Reconnect(ctx, sandboxID)
	if err != nil {
		s.log.Warn("sandbox reconnect failed during teardown",
			"project_id", projectID, "sandbox_id", sandboxID, "error", err)
		return
	}
	if err := s.gw.Terminate(ctx, h); err != nil {
		s.log.Warn("sandbox termination failed",
			"project_id", projectID, "sandbox_id", sandboxID, "error", err)
	}
}
