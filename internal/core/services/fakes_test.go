package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
)

// In-memory repository fakes. The transfer coordinator exercises the exact
// read-modify-write interleavings the real pgsql adapters would see, so the
// fakes keep state instead of scripting per-call returns.

type fakeSettingsRepo struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: make(map[string]json.RawMessage)}
}

func settingKey(worldID, userID, key string) string {
	return worldID + "|" + userID + "|" + key
}

func (f *fakeSettingsRepo) GetSetting(_ context.Context, worldID, userID, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[settingKey(worldID, userID, key)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return v, nil
}

func (f *fakeSettingsRepo) SetSetting(_ context.Context, worldID, userID, key string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[settingKey(worldID, userID, key)] = value
	return nil
}

type fakeActorRepo struct {
	mu     sync.Mutex
	actors map[string]*domain.Actor
	flags  map[string]map[string]json.RawMessage

	// failFlagWrites lists actor ids whose SetFlag calls fail, to exercise
	// compensation paths.
	failFlagWrites map[string]bool
}

func newFakeActorRepo(actors ...*domain.Actor) *fakeActorRepo {
	f := &fakeActorRepo{
		actors:         make(map[string]*domain.Actor),
		flags:          make(map[string]map[string]json.RawMessage),
		failFlagWrites: make(map[string]bool),
	}
	for _, a := range actors {
		f.actors[a.ActorID] = a
	}
	return f
}

func (f *fakeActorRepo) FindActorByID(_ context.Context, actorID string) (*domain.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.actors[actorID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeActorRepo) ListActorsByWorld(_ context.Context, worldID string) ([]domain.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Actor
	for _, a := range f.actors {
		if a.WorldID == worldID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeActorRepo) SetAttribute(_ context.Context, actorID, key string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.actors[actorID]
	if !ok {
		return apperrors.ErrNotFound
	}
	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return err
	}
	if a.Attributes == nil {
		a.Attributes = map[string]any{}
	}
	a.Attributes[key] = v
	return nil
}

func (f *fakeActorRepo) GetFlag(_ context.Context, actorID, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.flags[actorID][key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return v, nil
}

func (f *fakeActorRepo) SetFlag(_ context.Context, actorID, key string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFlagWrites[actorID] {
		return fmt.Errorf("flag write refused for %s", actorID)
	}
	if _, ok := f.actors[actorID]; !ok {
		return apperrors.ErrNotFound
	}
	if f.flags[actorID] == nil {
		f.flags[actorID] = make(map[string]json.RawMessage)
	}
	f.flags[actorID][key] = value
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
	flags  map[string]map[string]json.RawMessage
}

func newFakeTokenRepo(tokens ...*domain.Token) *fakeTokenRepo {
	f := &fakeTokenRepo{
		tokens: make(map[string]*domain.Token),
		flags:  make(map[string]map[string]json.RawMessage),
	}
	for _, tok := range tokens {
		f.tokens[tok.TokenID] = tok
	}
	return f
}

func (f *fakeTokenRepo) FindTokenByID(_ context.Context, tokenID string) (*domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[tokenID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *tok
	return &cp, nil
}

func (f *fakeTokenRepo) SaveToken(_ context.Context, token domain.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token.TokenID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := token
	f.tokens[token.TokenID] = &cp
	return nil
}

func (f *fakeTokenRepo) GetFlag(_ context.Context, tokenID, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.flags[tokenID][key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return v, nil
}

func (f *fakeTokenRepo) SetFlag(_ context.Context, tokenID, key string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.flags[tokenID] == nil {
		f.flags[tokenID] = make(map[string]json.RawMessage)
	}
	f.flags[tokenID][key] = value
	return nil
}

type fakeSceneRepo struct {
	scenes map[string]*domain.Scene
}

func newFakeSceneRepo(scenes ...*domain.Scene) *fakeSceneRepo {
	f := &fakeSceneRepo{scenes: make(map[string]*domain.Scene)}
	for _, sc := range scenes {
		f.scenes[sc.SceneID] = sc
	}
	return f
}

func (f *fakeSceneRepo) FindSceneByID(_ context.Context, sceneID string) (*domain.Scene, error) {
	sc, ok := f.scenes[sceneID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		f.users[u.WorldID+"|"+u.UserID] = u
	}
	return f
}

func (f *fakeUserRepo) FindUserByID(_ context.Context, worldID, userID string) (*domain.User, error) {
	u, ok := f.users[worldID+"|"+userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) ListUsersByWorld(_ context.Context, worldID string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.WorldID == worldID {
			out = append(out, *u)
		}
	}
	return out, nil
}

// recordingBus captures emitted events; transfer timers fire on their own
// goroutines, so access is synchronized.
type recordingBus struct {
	mu     sync.Mutex
	events []busEvent
}

type busEvent struct {
	name    string
	payload any
}

func newRecordingBus() *recordingBus {
	return &recordingBus{}
}

func (b *recordingBus) Emit(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, busEvent{name: event, payload: payload})
}

func (b *recordingBus) On(string, ports.EventHandler) func() {
	return func() {}
}

func (b *recordingBus) named(event string) []busEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []busEvent
	for _, e := range b.events {
		if e.name == event {
			out = append(out, e)
		}
	}
	return out
}

var (
	_ ports.SettingsRepository = (*fakeSettingsRepo)(nil)
	_ ports.ActorRepository    = (*fakeActorRepo)(nil)
	_ ports.TokenRepository    = (*fakeTokenRepo)(nil)
	_ ports.SceneRepository    = (*fakeSceneRepo)(nil)
	_ ports.UserRepository     = (*fakeUserRepo)(nil)
	_ ports.EventBus           = (*recordingBus)(nil)
)
