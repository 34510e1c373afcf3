package main

import (
	"context"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/internal/store"
	"github.com/sells-group/station-search/pkg/ncei"
)

// initClient builds the NCEI client from configuration.
func initClient() *ncei.HTTPClient {
	return ncei.New(
		ncei.WithBaseURL(cfg.NCEI.BaseURL),
		ncei.WithHTTPClient(&http.Client{Timeout: cfg.NCEI.Timeout()}),
		ncei.WithMinInterval(cfg.NCEI.MinInterval()),
		ncei.WithRetry(cfg.NCEI.Retry.Resilience()),
		ncei.WithUserAgent(cfg.NCEI.UserAgent),
	)
}

// initStore opens and migrates the run log database.
func initStore(ctx context.Context) (store.Store, error) {
	if err := artifact.EnsureDir(filepath.Dir(cfg.Store.Path)); err != nil {
		return nil, err
	}
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// runLog records runs when a store is available. With no store every
// method is a no-op. Store errors are logged, never returned.
type runLog struct {
	st store.Store
}

func openRunLog(ctx context.Context) *runLog {
	if cfg.Store.Disabled {
		return &runLog{}
	}
	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("run log unavailable, continuing without it", zap.Error(err))
		return &runLog{}
	}
	return &runLog{st: st}
}

func (l *runLog) start(ctx context.Context, params store.RunParams) string {
	if l.st == nil {
		return ""
	}
	run, err := l.st.CreateRun(ctx, params)
	if err != nil {
		zap.L().Warn("run log: create run", zap.Error(err))
		return ""
	}
	return run.ID
}

func (l *runLog) complete(ctx context.Context, id string, stations []model.RankedStation, halfLengthKM float64) {
	if l.st == nil || id == "" {
		return
	}
	if err := l.st.CompleteRun(ctx, id, stations, halfLengthKM); err != nil {
		zap.L().Warn("run log: complete run", zap.String("run_id", id), zap.Error(err))
	}
}

func (l *runLog) fail(ctx context.Context, id string, cause error) {
	if l.st == nil || id == "" {
		return
	}
	if err := l.st.FailRun(context.WithoutCancel(ctx), id, cause); err != nil {
		zap.L().Warn("run log: fail run", zap.String("run_id", id), zap.Error(err))
	}
}

func (l *runLog) Close() {
	if l.st != nil {
		_ = l.st.Close()
	}
}
