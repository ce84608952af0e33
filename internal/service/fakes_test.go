package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the user, token and task repositories.
type memStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]models.User
	tokens map[uuid.UUID][]string
	tasks  map[uuid.UUID]models.Task
	// failWith, when set, is returned by every call.
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[uuid.UUID]models.User),
		tokens: make(map[uuid.UUID][]string),
		tasks:  make(map[uuid.UUID]models.Task),
	}
}

func (m *memStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.ErrEmailTaken
		}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *memStore) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Email == u.Email {
			return models.ErrEmailTaken
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return models.ErrNotFound
	}
	for tid, t := range m.tasks {
		if t.OwnerID == id {
			delete(m.tasks, tid)
		}
	}
	delete(m.tokens, id)
	delete(m.users, id)
	return nil
}

func (m *memStore) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Avatar = avatar
	m.users[id] = u
	return nil
}

func (m *memStore) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || len(u.Avatar) == 0 {
		return nil, models.ErrNotFound
	}
	return u.Avatar, nil
}

func (m *memStore) AddToken(ctx context.Context, t models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.tokens[t.UserID] = append(m.tokens[t.UserID], t.Value)
	return nil
}

func (m *memStore) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[userID][:0]
	for _, t := range m.tokens[userID] {
		if t != token {
			kept = append(kept, t)
		}
	}
	m.tokens[userID] = kept
	return nil
}

func (m *memStore) RemoveAllTokens(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

func (m *memStore) TokenExists(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateTask(ctx context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = *t
	return nil
}

func (m *memStore) ListTasks(ctx context.Context, ownerID uuid.UUID, q models.TaskQuery) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := make([]models.Task, 0)
	for _, t := range m.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (m *memStore) GetTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, u models.TaskUpdate) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	m.tasks[id] = t
	return &t, nil
}

func (m *memStore) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	delete(m.tasks, id)
	return &t, nil
}

type notification struct {
	kind  models.NotificationKind
	email string
	name  string
}

// recordingNotifier captures notifications instead of sending them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(kind models.NotificationKind, email, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{kind: kind, email: email, name: name})
}

// fakeImages returns a fixed output or error.
type fakeImages struct {
	out []byte
	err error
}

func (f *fakeImages) Process(data []byte) ([]byte, error) {
	return f.out, f.err
}

// fakeSigner issues tokens of the form "tok-<n>-<user>" and parses them back.
type fakeSigner struct {
	mu     sync.Mutex
	n      int
	issued map[string]uuid.UUID
	err    error
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{issued: make(map[string]uuid.UUID)}
}

func (f *fakeSigner) Generate(userID uuid.UUID) (string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	f.n++
	tok := "tok-" + string(rune('a'+f.n)) + "-" + userID.String()
	f.issued[tok] = userID
	return tok, time.Now().Add(time.Hour), nil
}

func (f *fakeSigner) Parse(token string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.issued[token]
	if !ok {
		return uuid.Nil, errors.New("bad signature")
	}
	return id, nil
}
