package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/internal/logging"
	httpAdapter "github.com/aretw0/leadflow/pkg/adapters/http"
	"github.com/aretw0/leadflow/pkg/adapters/leadsapi"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/adapters/natsbus"
	"github.com/aretw0/leadflow/pkg/adapters/redis"
	"github.com/aretw0/leadflow/pkg/adapters/sqlite"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/notify"
	"github.com/aretw0/leadflow/pkg/observability"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is the wired service shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	svc     *leadflow.Service
	streams *httpAdapter.StreamManager
	metrics *prometheus.Registry // nil when metrics are disabled

	closers []func() error
}

func newApp(cfg *config.Config, logOut io.Writer) (a *app, err error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a = &app{
		cfg:    cfg,
		logger: logging.NewWithFormat(logOut, level, cfg.Log.Format),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	store, locker, err := a.openStore()
	if err != nil {
		return nil, err
	}

	client := leadsapi.New(cfg.Leads.BaseURL,
		leadsapi.WithTimeout(cfg.Leads.Timeout),
		leadsapi.WithLogger(a.logger),
	)

	a.streams = httpAdapter.NewStreamManager(a.logger)
	notifiers := notify.Fanout{a.streams, notify.Log{Logger: a.logger}}
	hooks := []domain.LifecycleHooks{observability.LoggingHooks(a.logger)}

	if cfg.Metrics.Enabled {
		a.metrics = prometheus.NewRegistry()
		a.metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := observability.NewMetrics(a.metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		hooks = append(hooks, m.Hooks())
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := natsbus.Connect(cfg.Notify.NATSURL,
			natsbus.WithSubject(cfg.Notify.Subject),
			natsbus.WithLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		notifiers = append(notifiers, pub)
		hooks = append(hooks, pub.Hooks())
	}

	opts := []leadflow.Option{
		leadflow.WithStore(store),
		leadflow.WithLeadClient(client),
		leadflow.WithNotifier(notifiers),
		leadflow.WithLifecycleHooks(observability.Combine(hooks...)),
		leadflow.WithLogger(a.logger),
	}
	if locker != nil {
		opts = append(opts, leadflow.WithLocker(locker))
	}
	if cfg.VariantsFile != "" {
		variants, err := wizard.LoadVariants(cfg.VariantsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, leadflow.WithVariants(variants...))
	}

	a.svc, err = leadflow.New(opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openStore() (ports.StateStore, ports.DistributedLocker, error) {
	store, locker, err := a.openDriver()
	if err != nil || a.cfg.Store.Encryption.Key == "" {
		return store, locker, err
	}
	enc := a.cfg.Store.Encryption
	keys, err := middleware.DecodeKeys(enc.Key, splitKeys(enc.FallbackKeys)...)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption: %w", err)
	}
	mw, err := middleware.NewEncryptionMiddleware(keys)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("Encrypting wizard fields at rest", "fallback_keys", len(keys.FallbackKeys))
	return middleware.Chain(store, mw), locker, nil
}

func splitKeys(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func (a *app) openDriver() (ports.StateStore, ports.DistributedLocker, error) {
	st := a.cfg.Store
	switch st.Driver {
	case config.DriverRedis:
		codec, err := redis.CodecByName(st.Redis.Codec)
		if err != nil {
			return nil, nil, err
		}
		store := redis.New(st.Redis.Addr, st.Redis.Password, st.Redis.DB,
			redis.WithTTL(st.TTL),
			redis.WithPrefix(st.Redis.Prefix),
			redis.WithCodec(codec),
		)
		a.closers = append(a.closers, store.Close)
		a.logger.Debug("Using redis store", "addr", st.Redis.Addr, "codec", st.Redis.Codec)
		return store, redis.NewLocker(store.Client(), store.Prefix()), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(st.SQLite.Path, sqlite.WithTTL(st.TTL))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.logger.Debug("Using sqlite store", "path", st.SQLite.Path)
		return store, nil, nil
	default:
		return memory.NewStore(), nil, nil
	}
}

// Close releases store and broker connections.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
