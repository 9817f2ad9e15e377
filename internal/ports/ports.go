package ports

import (
	"context"

	"vitalnotes/internal/domain"
)

type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

// SessionStorage is a durable string key-value store. Put and Delete must
// apply all of their keys as one write.
type SessionStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

type TokenSource interface {
	Token() string
}

type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResponse, error)
}

type PatientAPI interface {
	ListPatients(ctx context.Context) ([]domain.Patient, error)
	CreatePatient(ctx context.Context, patient domain.Patient) (domain.Patient, error)
	UpdatePatient(ctx context.Context, id int64, patient domain.Patient) (domain.Patient, error)
	DeletePatient(ctx context.Context, id int64) error
}

type TokenInspector interface {
	Inspect(token string) (domain.TokenInfo, error)
}
