package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalnotes/internal/domain"
)

func TestSessionStore_EstablishPersistsBothKeys(t *testing.T) {
	storage := newMemStorage()
	store := NewSessionStore(storage, &recordingLogger{})

	err := store.Establish(context.Background(), domain.Identity{ID: 7, Name: "Dr. Ray", Email: "ray@clinic.test", Role: "doctor"}, "T1")
	require.NoError(t, err)

	identity, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, domain.RoleDoctor, identity.Role)
	assert.Equal(t, "T1", store.Token())
	assert.Equal(t, "T1", storage.data[KeyToken])
	assert.JSONEq(t, `{"id":7,"name":"Dr. Ray","email":"ray@clinic.test","role":"DOCTOR"}`, storage.data[KeyUser])
	assert.Equal(t, 1, storage.puts)
}

func TestSessionStore_EstablishRejectsEmptyToken(t *testing.T) {
	storage := newMemStorage()
	store := NewSessionStore(storage, &recordingLogger{})

	err := store.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleAdmin}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, ok := store.Current()
	assert.False(t, ok)
	assert.Zero(t, storage.puts)
}

func TestSessionStore_EstablishFailureLeavesNoSession(t *testing.T) {
	storage := newMemStorage()
	storage.putErr = errors.New("disk full")
	store := NewSessionStore(storage, &recordingLogger{})

	err := store.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleAdmin}, "T1")

	require.Error(t, err)
	_, ok := store.Current()
	assert.False(t, ok)
	assert.Empty(t, store.Token())
}

func TestSessionStore_ClearRemovesEverything(t *testing.T) {
	storage := newMemStorage()
	store := NewSessionStore(storage, &recordingLogger{})
	require.NoError(t, store.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleNurse}, "T1"))

	require.NoError(t, store.Clear(context.Background()))

	_, ok := store.Current()
	assert.False(t, ok)
	assert.Empty(t, store.Token())
	assert.Empty(t, storage.data)
}

func TestSessionStore_ClearDropsMemoryEvenWhenStorageFails(t *testing.T) {
	storage := newMemStorage()
	store := NewSessionStore(storage, &recordingLogger{})
	require.NoError(t, store.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleNurse}, "T1"))
	storage.deleteErr = errors.New("read-only")

	err := store.Clear(context.Background())

	require.Error(t, err)
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestSessionStore_RehydrateRoundTrip(t *testing.T) {
	storage := newMemStorage()
	first := NewSessionStore(storage, &recordingLogger{})
	require.NoError(t, first.Establish(context.Background(), domain.Identity{ID: 3, Name: "Ana", Email: "ana@clinic.test", Role: "Nurse"}, "T3"))

	second := NewSessionStore(storage, &recordingLogger{})
	require.NoError(t, second.Rehydrate(context.Background()))

	session, ok := second.Session()
	require.True(t, ok)
	assert.Equal(t, domain.Session{
		Identity: domain.Identity{ID: 3, Name: "Ana", Email: "ana@clinic.test", Role: domain.RoleNurse},
		Token:    "T3",
	}, session)
}

func TestSessionStore_RehydrateNormalizesStoredRole(t *testing.T) {
	storage := newMemStorage()
	storage.data[KeyToken] = "T9"
	storage.data[KeyUser] = `{"id":9,"name":"Lee","email":"lee@clinic.test","role":"admin"}`
	store := NewSessionStore(storage, &recordingLogger{})

	require.NoError(t, store.Rehydrate(context.Background()))

	identity, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, domain.RoleAdmin, identity.Role)
}

func TestSessionStore_RehydrateDiscardsCorruptState(t *testing.T) {
	tests := []struct {
		name string
		data map[string]string
	}{
		{"unparseable user", map[string]string{KeyToken: "T1", KeyUser: "{not json"}},
		{"null user", map[string]string{KeyToken: "T1", KeyUser: "null"}},
		{"token without user", map[string]string{KeyToken: "T1"}},
		{"user without token", map[string]string{KeyUser: `{"id":1,"role":"ADMIN"}`}},
		{"empty token", map[string]string{KeyToken: "", KeyUser: `{"id":1,"role":"ADMIN"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMemStorage()
			for k, v := range tt.data {
				storage.data[k] = v
			}
			logger := &recordingLogger{}
			store := NewSessionStore(storage, logger)

			require.NoError(t, store.Rehydrate(context.Background()))

			_, ok := store.Current()
			assert.False(t, ok)
			assert.Empty(t, storage.data)
			assert.Equal(t, 1, logger.count("warn"))
		})
	}
}

func TestSessionStore_RehydrateWithNothingStored(t *testing.T) {
	storage := newMemStorage()
	logger := &recordingLogger{}
	store := NewSessionStore(storage, logger)

	require.NoError(t, store.Rehydrate(context.Background()))

	_, ok := store.Current()
	assert.False(t, ok)
	assert.Zero(t, storage.deletes)
	assert.Zero(t, logger.count("warn"))
}

func TestSessionStore_RehydrateReportsStorageErrors(t *testing.T) {
	storage := newMemStorage()
	storage.getErr = errors.New("connection refused")
	store := NewSessionStore(storage, &recordingLogger{})

	err := store.Rehydrate(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSessionStore_ListenersSeeEstablishAndClear(t *testing.T) {
	store := NewSessionStore(newMemStorage(), &recordingLogger{})
	var events []bool
	store.OnChange(func(session domain.Session, active bool) {
		events = append(events, active)
		if active {
			assert.Equal(t, "T1", session.Token)
		}
	})

	require.NoError(t, store.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleAdmin}, "T1"))
	require.NoError(t, store.Clear(context.Background()))

	assert.Equal(t, []bool{true, false}, events)
}

func TestSessionStore_ClearRetriesTransientStorageFailure(t *testing.T) {
	storage := newMemStorage()
	logger := &recordingLogger{}
	store := NewSessionStore(storage, logger)
	require.NoError(t, store.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleNurse}, "T1"))
	storage.deleteFailures = 1

	require.NoError(t, store.Clear(context.Background()))

	assert.Empty(t, storage.data)
	assert.Equal(t, 2, storage.deletes)
	assert.Equal(t, 1, logger.count("warn"))

	next := NewSessionStore(storage, &recordingLogger{})
	require.NoError(t, next.Rehydrate(context.Background()))
	_, ok := next.Current()
	assert.False(t, ok)
}

func TestSessionStore_ClearReportsPersistentStorageFailure(t *testing.T) {
	storage := newMemStorage()
	store := NewSessionStore(storage, &recordingLogger{})
	require.NoError(t, store.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleNurse}, "T1"))
	storage.deleteErr = errors.New("read-only")

	err := store.Clear(context.Background())

	assert.ErrorContains(t, err, "read-only")
	assert.Equal(t, 2, storage.deletes)
	assert.Equal(t, "T1", storage.data[KeyToken])
}
