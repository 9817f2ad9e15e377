package application

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"vitalnotes/internal/domain"
)

type authAPIMock struct{ mock.Mock }

func (m *authAPIMock) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResponse, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(domain.LoginResponse), args.Error(1)
}

type patientAPIMock struct{ mock.Mock }

func (m *patientAPIMock) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.Patient)
	return records, args.Error(1)
}

func (m *patientAPIMock) CreatePatient(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	args := m.Called(ctx, patient)
	return args.Get(0).(domain.Patient), args.Error(1)
}

func (m *patientAPIMock) UpdatePatient(ctx context.Context, id int64, patient domain.Patient) (domain.Patient, error) {
	args := m.Called(ctx, id, patient)
	return args.Get(0).(domain.Patient), args.Error(1)
}

func (m *patientAPIMock) DeletePatient(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// memStorage is an in-memory SessionStorage with injectable failures.
type memStorage struct {
	mu        sync.Mutex
	data      map[string]string
	putErr    error
	deleteErr error
	// deleteFailures makes the next n deletes fail before deleteErr applies.
	deleteFailures int
	getErr    error
	puts      int
	deletes   int
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string]string{}}
}

func (s *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStorage) Put(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	for k, v := range entries {
		s.data[k] = v
	}
	return nil
}

func (s *memStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteFailures > 0 {
		s.deleteFailures--
		return errors.New("transient delete failure")
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) Info(_ context.Context, msg string, _ ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...any) { l.add("error", msg) }
func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...any) { l.add("debug", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
