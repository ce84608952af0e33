package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/taskmanager/internal/middleware"
	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
)

// fakeUserService implements handler.UserService with overridable funcs.
type fakeUserService struct {
	register     func(models.Registration) (*models.User, error)
	authenticate func(email, password string) (*models.User, error)
	update       func(*models.User, models.UserUpdate) (*models.User, error)
	deleteUser   func(*models.User) error
	list         func() ([]models.User, error)
	setAvatar    func(*models.User, []byte) error
	deleteAvatar func(*models.User) error
	getAvatar    func(uuid.UUID) ([]byte, error)
}

func (f *fakeUserService) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	return f.register(r)
}

func (f *fakeUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return f.authenticate(email, password)
}

func (f *fakeUserService) UpdateFields(ctx context.Context, u *models.User, upd models.UserUpdate) (*models.User, error) {
	return f.update(u, upd)
}

func (f *fakeUserService) DeleteUser(ctx context.Context, u *models.User) error {
	return f.deleteUser(u)
}

func (f *fakeUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return f.list()
}

func (f *fakeUserService) SetAvatar(ctx context.Context, u *models.User, data []byte) error {
	return f.setAvatar(u, data)
}

func (f *fakeUserService) DeleteAvatar(ctx context.Context, u *models.User) error {
	return f.deleteAvatar(u)
}

func (f *fakeUserService) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return f.getAvatar(id)
}

// fakeSessions records revocations and issues a fixed token.
type fakeSessions struct {
	token     string
	issueErr  error
	revoked   []string
	revokeAll bool
}

func (f *fakeSessions) Issue(ctx context.Context, u *models.User) (string, error) {
	return f.token, f.issueErr
}

func (f *fakeSessions) Revoke(ctx context.Context, u *models.User, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeSessions) RevokeAll(ctx context.Context, u *models.User) error {
	f.revokeAll = true
	return nil
}

// fakeTaskService implements handler.TaskService with overridable funcs.
type fakeTaskService struct {
	create func(owner uuid.UUID, nt models.NewTask) (*models.Task, error)
	list   func(owner uuid.UUID, q models.TaskQuery) ([]models.Task, error)
	get    func(owner, id uuid.UUID) (*models.Task, error)
	update func(owner, id uuid.UUID, u models.TaskUpdate) (*models.Task, error)
	del    func(owner, id uuid.UUID) (*models.Task, error)
}

func (f *fakeTaskService) Create(ctx context.Context, owner uuid.UUID, nt models.NewTask) (*models.Task, error) {
	return f.create(owner, nt)
}

func (f *fakeTaskService) List(ctx context.Context, owner uuid.UUID, q models.TaskQuery) ([]models.Task, error) {
	return f.list(owner, q)
}

func (f *fakeTaskService) Get(ctx context.Context, owner, id uuid.UUID) (*models.Task, error) {
	return f.get(owner, id)
}

func (f *fakeTaskService) Update(ctx context.Context, owner, id uuid.UUID, u models.TaskUpdate) (*models.Task, error) {
	return f.update(owner, id, u)
}

func (f *fakeTaskService) Delete(ctx context.Context, owner, id uuid.UUID) (*models.Task, error) {
	return f.del(owner, id)
}

var testUser = &models.User{ID: uuid.MustParse("6f1d7f1e-2c1a-4a55-9d7e-3a0c1b2d4e5f"), Name: "Ann", Email: "ann@x.com", Age: 30}

// authed attaches testUser and token to req the way the auth middleware does.
func authed(req *http.Request, token string) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), testUser, token))
}

func serve(t *testing.T, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
