package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/gopals"
	"github.com/unkn0wn-root/gopals/genstore"
	asynchook "github.com/unkn0wn-root/gopals/hooks/async"
	glogrus "github.com/unkn0wn-root/gopals/log/logrus"
	gslog "github.com/unkn0wn-root/gopals/log/slog"
	gzap "github.com/unkn0wn-root/gopals/log/zap"
	gzerolog "github.com/unkn0wn-root/gopals/log/zerolog"
	"github.com/unkn0wn-root/gopals/provider/bigcache"
	"github.com/unkn0wn-root/gopals/provider/redis"
	"github.com/unkn0wn-root/gopals/provider/ristretto"
	"github.com/unkn0wn-root/gopals/sloghooks"
)

// newLogger returns the runner logger for name and a flush func.
// "none" yields a nil Logger, which the runner replaces with NopLogger.
func newLogger(name string, w io.Writer) (gopals.Logger, func(), error) {
	nop := func() {}
	switch name {
	case "none", "":
		return nil, nop, nil
	case "zap":
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(w),
			zapcore.DebugLevel,
		)
		l := zap.New(core)
		return gzap.ZapLogger{L: l}, func() { _ = l.Sync() }, nil
	case "logrus":
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(logrus.DebugLevel)
		return glogrus.LogrusLogger{E: logrus.NewEntry(l)}, nop, nil
	case "slog":
		l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return gslog.Logger{L: l}, nop, nil
	case "zerolog":
		l := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
		return gzerolog.Logger{L: &l}, nop, nil
	default:
		return nil, nop, fmt.Errorf("unknown logger %q", name)
	}
}

func newHooks(w io.Writer) *asynchook.Hooks {
	// passes and dropped records are reported at debug level
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	raw := sloghooks.New(l, sloghooks.Options{})
	return asynchook.New(raw, 1, 256)
}

// openStore sets the Provider (and, for Redis, a shared GenStore) on opts.
// A store preset on cfg is used as is.
func openStore(ctx context.Context, cfg config, opts *gopals.Options) error {
	if cfg.provider != nil {
		opts.Provider = cfg.provider
		opts.GenStore = cfg.gens
		return nil
	}
	switch cfg.store {
	case "none", "":
		return nil
	case "ristretto":
		p, err := ristretto.New(ristretto.DefaultConfig())
		if err != nil {
			return err
		}
		opts.Provider = p
	case "bigcache":
		p, err := bigcache.New(ctx, bigcache.Config{LifeWindow: cfg.ttl})
		if err != nil {
			return err
		}
		opts.Provider = p
	case "redis":
		p, err := redis.Dial(ctx, cfg.redisAddr)
		if err != nil {
			return err
		}
		// run counters must outlive the process for records to stay valid
		opts.Provider = p
		opts.GenStore = genstore.NewRedisGenStore(p.Client(), cfg.namespace)
	default:
		return fmt.Errorf("unknown store %q", cfg.store)
	}
	return nil
}
