package etcd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/HorseArcher567/logkit/pkg/config"
	"github.com/HorseArcher567/logkit/pkg/xlog"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Module is the source recorded on watcher logs.
const Module = "etcd"

// Watcher keeps the installed logger in sync with a logging configuration
// stored under an etcd key. Values are YAML or JSON encoded xlog.Config.
type Watcher struct {
	kv      clientv3.KV
	watcher clientv3.Watcher
	key     string
	base    string
	manager *xlog.Manager
}

// NewWatcher creates a Watcher for cfg.Key. A nil manager selects the global one.
func NewWatcher(client *clientv3.Client, cfg *WatchConfig, manager *xlog.Manager) *Watcher {
	return newWatcher(client, client, cfg, manager)
}

func newWatcher(kv clientv3.KV, w clientv3.Watcher, cfg *WatchConfig, manager *xlog.Manager) *Watcher {
	if manager == nil {
		manager = xlog.Default()
	}
	return &Watcher{
		kv:      kv,
		watcher: w,
		key:     cfg.Key,
		base:    cfg.Base,
		manager: manager,
	}
}

// Run applies the current value of the key, then every later PUT, until ctx
// is cancelled. Values that fail to decode or build are logged and skipped;
// the active logger stays installed. A deleted key is ignored as well.
func (w *Watcher) Run(ctx context.Context) error {
	resp, err := w.kv.Get(ctx, w.key)
	if err != nil {
		return fmt.Errorf("etcd: failed to get %s: %w", w.key, err)
	}
	for _, kv := range resp.Kvs {
		w.handle(kv.Value, kv.ModRevision)
	}

	var opts []clientv3.OpOption
	if resp.Header != nil && resp.Header.Revision > 0 {
		opts = append(opts, clientv3.WithRev(resp.Header.Revision+1))
	}

	wch := w.watcher.Watch(ctx, w.key, opts...)
	for {
		select {
		case <-ctx.Done():
			return nil
		case wr, ok := <-wch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("etcd: watch channel closed")
			}
			if err := wr.Err(); err != nil {
				return fmt.Errorf("etcd: watch %s: %w", w.key, err)
			}
			for _, ev := range wr.Events {
				switch ev.Type {
				case mvccpb.PUT:
					w.handle(ev.Kv.Value, ev.Kv.ModRevision)
				case mvccpb.DELETE:
					w.logger().Warn("logging config key deleted, keeping active configuration", "key", w.key)
				}
			}
		}
	}
}

func (w *Watcher) handle(value []byte, revision int64) {
	l, err := w.apply(value)
	if err != nil {
		w.logger().Error("failed to apply logging config", "key", w.key, "revision", revision, "error", err)
		return
	}
	l.Module(Module).Info("logging config applied", "key", w.key, "revision", revision, "session", l.ID())
}

// apply decodes value and replaces the installed logger.
func (w *Watcher) apply(value []byte) (*xlog.Logger, error) {
	format := config.FormatYAML
	if trimmed := bytes.TrimSpace(value); len(trimmed) > 0 && trimmed[0] == '{' {
		format = config.FormatJSON
	}

	cfg := xlog.DefaultConfig()
	if err := config.LoadBytes(value, format, &cfg); err != nil {
		return nil, err
	}
	if cfg.Base == "" {
		cfg.Base = w.base
	}
	return w.manager.Replace(cfg)
}

func (w *Watcher) logger() *slog.Logger {
	return slog.Default().With(xlog.ModuleKey, Module)
}
