package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"

	adapterlogger "vitalnotes/internal/adapters/logger"
	"vitalnotes/internal/application"
	"vitalnotes/internal/config"
	"vitalnotes/internal/domain"
	"vitalnotes/internal/infrastructure/apiclient"
	"vitalnotes/internal/infrastructure/auth"
	"vitalnotes/internal/infrastructure/dynamodb"
	"vitalnotes/internal/infrastructure/storage"
	"vitalnotes/internal/ports"
)

// app is the wired client for one process.
type app struct {
	cfg       *config.Config
	logger    *adapterlogger.SlogLogger
	sessions  *application.SessionStore
	policy    *application.RolePolicy
	auth      *application.AuthGateway
	guard     *application.AccessGuard
	records   *application.RecordSync
	inspector ports.TokenInspector

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	level, err := adapterlogger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := adapterlogger.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logger := adapterlogger.NewWithWriter(logOut, level, format).With("profile", cfg.SessionProfile)

	a := &app{cfg: cfg, logger: logger, inspector: auth.NewTokenInspector()}
	store, err := a.sessionStorage(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.sessions = application.NewSessionStore(store, logger)
	if err := a.sessions.Rehydrate(ctx); err != nil {
		a.close()
		return nil, err
	}

	opts := []apiclient.Option{}
	if cfg.TracingEnabled {
		opts = append(opts, apiclient.WithHTTPClient(xray.Client(&http.Client{})))
	}
	opts = append(opts, apiclient.WithTimeout(cfg.HTTPTimeout))
	client, err := apiclient.New(cfg.APIURL, a.sessions, opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	a.policy = application.NewRolePolicy(domain.DefaultPermissions())
	a.auth = application.NewAuthGateway(client, a.sessions, logger)
	a.guard = application.NewAccessGuard(a.sessions, a.policy)
	a.records = application.NewRecordSync(client, logger)
	a.records.Follow(a.sessions)
	return a, nil
}

func (a *app) sessionStorage(ctx context.Context) (ports.SessionStorage, error) {
	switch a.cfg.SessionBackend {
	case config.BackendRedis:
		rdb, err := storage.ConnectRedis(ctx, storage.RedisConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		return storage.NewRedisStore(rdb, a.cfg.SessionProfile), nil
	case config.BackendDynamoDB:
		client, err := dynamodb.NewClient(ctx, a.cfg.AWSRegion, a.cfg.DynamoDBTable, a.cfg.TracingEnabled)
		if err != nil {
			return nil, fmt.Errorf("initialize dynamodb client: %w", err)
		}
		return dynamodb.NewSessionStore(client, a.cfg.SessionProfile), nil
	default:
		return storage.NewFileStore(a.cfg.SessionFile)
	}
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn(context.Background(), "failed to release resource", "error", err)
		}
	}
	a.closers = nil
}
