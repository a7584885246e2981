package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge-labs/webforge-backend/internal/apperr"
	"github.com/webforge-labs/webforge-backend/internal/logging"
	"github.com/webforge-labs/webforge-backend/internal/projects/domain"
	"github.com/webforge-labs/webforge-backend/internal/sandbox"
)

type fakeStore struct {
	mu          sync.Mutex
	seq         int
	projects    map[string]*domain.Project
	activateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[string]*domain.Project{}}
}

func (f *fakeStore) Create(_ context.Context, userID, name string, description *string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	now := time.Now()
	p := &domain.Project{
		ID:          fmt.Sprintf("proj-%d", f.seq),
		UserID:      userID,
		Name:        name,
		Description: description,
		Status:      domain.StatusCreating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetByID(_ context.Context, userID, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return nil, apperr.NotFound("project")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, userID string) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Project
	for _, p := range f.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateMeta(_ context.Context, userID, id string, name, description *string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return nil, apperr.NotFound("project")
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = description
	}
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Activate(_ context.Context, id, sandboxID string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return nil, f.activateErr
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, apperr.NotFound("project")
	}
	p.SandboxID = &sandboxID
	p.Status = domain.StatusActive
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakeStore) MarkError(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return apperr.NotFound("project")
	}
	p.Status = domain.StatusError
	p.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) MarkStopped(_ context.Context, userID, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return nil, apperr.NotFound("project")
	}
	p.Status = domain.StatusStopped
	p.SandboxID = nil
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Delete(_ context.Context, userID, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(f.projects, id)
	return true, nil
}

type fakeGateway struct {
	provisionErr error
	startErr     error
	terminateErr error

	provisioned int
	terminated  []string
}

func (g *fakeGateway) Provision(context.Context) (sandbox.Handle, error) {
	if g.provisionErr != nil {
		return sandbox.Handle{}, g.provisionErr
	}
	g.provisioned++
	return sandbox.Handle{SandboxID: fmt.Sprintf("sbx-%d", g.provisioned)}, nil
}

func (g *fakeGateway) Start(_ context.Context, h sandbox.Handle) (string, error) {
	if g.startErr != nil {
		return "", g.startErr
	}
	return "https://" + h.SandboxID + ".preview.example", nil
}

func (g *fakeGateway) Reconnect(_ context.Context, sandboxID string) (sandbox.Handle, error) {
	return sandbox.Handle{SandboxID: sandboxID}, nil
}

func (g *fakeGateway) Terminate(_ context.Context, h sandbox.Handle) error {
	g.terminated = append(g.terminated, h.SandboxID)
	return g.terminateErr
}

func (g *fakeGateway) ReadFile(context.Context, sandbox.Handle, string) (string, error) {
	return "", nil
}

func (g *fakeGateway) WriteFile(context.Context, sandbox.Handle, string, string) error {
	return nil
}

func (g *fakeGateway) CreateEntry(context.Context, sandbox.Handle, string, string, string) error {
	return nil
}

func (g *fakeGateway) DeleteEntry(context.Context, sandbox.Handle, string) error {
	return nil
}

func (g *fakeGateway) List(context.Context, sandbox.Handle, string) ([]sandbox.Entry, error) {
	return nil, nil
}

func newLifecycle(t *testing.T, gw *fakeGateway) (*Lifecycle, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewLifecycle(store, gw, logging.New("error")), store
}

func TestCreate_ActivatesProjectAndReturnsURL(t *testing.T) {
	svc, _ := newLifecycle(t, &fakeGateway{})

	res, err := svc.Create(context.Background(), "user-1", "my site", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, res.Project.Status)
	require.NotNil(t, res.Project.SandboxID)
	assert.Equal(t, "sbx-1", *res.Project.SandboxID)
	assert.Equal(t, "https://sbx-1.preview.example", res.URL)
}

func TestCreate_RejectsBlankName(t *testing.T) {
	svc, store := newLifecycle(t, &fakeGateway{})

	_, err := svc.Create(context.Background(), "user-1", "   ", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, store.projects, "no row persisted for an invalid request")
}

func TestCreate_ProvisionFailureKeepsErroredRow(t *testing.T) {
	svc, store := newLifecycle(t, &fakeGateway{provisionErr: errors.New("capacity")})

	_, err := svc.Create(context.Background(), "user-1", "my site", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvisioning, apperr.KindOf(err))

	// The failed project remains visible to its owner.
	list, lerr := svc.List(context.Background(), "user-1")
	require.NoError(t, lerr)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusError, list[0].Status)
	assert.Nil(t, list[0].SandboxID)
	assert.Len(t, store.projects, 1)
}

func TestCreate_StartFailureMarksError(t *testing.T) {
	svc, _ := newLifecycle(t, &fakeGateway{startErr: errors.New("boot timeout")})

	_, err := svc.Create(context.Background(), "user-1", "my site", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvisioning, apperr.KindOf(err))

	list, lerr := svc.List(context.Background(), "user-1")
	require.NoError(t, lerr)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusError, list[0].Status)
}

func TestCreate_ActivateFailureMarksErrorAndTerminates(t *testing.T) {
	gw := &fakeGateway{}
	svc, store := newLifecycle(t, gw)
	store.activateErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), "user-1", "my site", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvisioning, apperr.KindOf(err))

	// The row must not stay in creating, and the now-orphaned sandbox
	// gets torn down.
	list, lerr := svc.List(context.Background(), "user-1")
	require.NoError(t, lerr)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusError, list[0].Status)
	assert.Nil(t, list[0].SandboxID)
	assert.Equal(t, []string{"sbx-1"}, gw.terminated)
}

func TestUpdate_MergesFields(t *testing.T) {
	svc, _ := newLifecycle(t, &fakeGateway{})
	desc := "first"
	res, err := svc.Create(context.Background(), "user-1", "original", &desc)
	require.NoError(t, err)
	id := res.Project.ID

	// Description only: name survives.
	newDesc := "second"
	p, err := svc.Update(context.Background(), "user-1", id, nil, &newDesc)
	require.NoError(t, err)
	assert.Equal(t, "original", p.Name)
	require.NotNil(t, p.Description)
	assert.Equal(t, "second", *p.Description)

	// Blank name is treated as absent.
	blank := "  "
	p, err = svc.Update(context.Background(), "user-1", id, &blank, nil)
	require.NoError(t, err)
	assert.Equal(t, "original", p.Name)

	// Empty update still bumps the timestamp.
	before := p.UpdatedAt
	time.Sleep(2 * time.Millisecond)
	p, err = svc.Update(context.Background(), "user-1", id, nil, nil)
	require.NoError(t, err)
	assert.True(t, p.UpdatedAt.After(before))
}

func TestStop_TerminatesSandboxAndParksRow(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newLifecycle(t, gw)
	res, err := svc.Create(context.Background(), "user-1", "my site", nil)
	require.NoError(t, err)

	p, err := svc.Stop(context.Background(), "user-1", res.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, p.Status)
	assert.Nil(t, p.SandboxID)
	assert.Equal(t, []string{"sbx-1"}, gw.terminated)
}

func TestDelete_SucceedsWhenTerminationFails(t *testing.T) {
	gw := &fakeGateway{terminateErr: errors.New("already dead")}
	svc, store := newLifecycle(t, gw)
	res, err := svc.Create(context.Background(), "user-1", "my site", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "user-1", res.Project.ID))
	assert.Empty(t, store.projects)
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _ := newLifecycle(t, &fakeGateway{})
	res, err := svc.Create(context.Background(), "user-1", "my site", nil)
	require.NoError(t, err)
	id := res.Project.ID

	// A foreign project and a missing project are indistinguishable.
	_, errForeign := svc.Get(context.Background(), "user-2", id)
	_, errMissing := svc.Get(context.Background(), "user-2", "proj-nope")
	assert.True(t, apperr.IsNotFound(errForeign))
	assert.True(t, apperr.IsNotFound(errMissing))
	assert.Equal(t, errForeign.Error(), errMissing.Error())

	errDel := svc.Delete(context.Background(), "user-2", id)
	assert.True(t, apperr.IsNotFound(errDel))

	// The real owner still sees it.
	_, err = svc.Get(context.Background(), "user-1", id)
	assert.NoError(t, err)
}
