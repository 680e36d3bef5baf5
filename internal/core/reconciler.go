package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/illarion/confvault/internal/env"
	"github.com/illarion/confvault/internal/prompt"
	"github.com/illarion/confvault/internal/schema"
	"github.com/illarion/confvault/internal/storage"
)

const DefaultMaxPasses = 4

// Store is the persistence the reconciler drives
type Store interface {
	Exists() bool
	Read() (schema.ConfigMap, error)
	Write(cfg schema.ConfigMap, force bool) error
	Remove() error
	Quarantine() (string, error)
	Path() string
	BackupPath() string
}

// State is a step of the reconciliation state machine
type State int

const (
	StateBootstrap State = iota
	StateReading
	StateDiffing
	StatePrompting
	StateCorrecting
	StateConverged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBootstrap:
		return "bootstrap"
	case StateReading:
		return "reading"
	case StateDiffing:
		return "diffing"
	case StatePrompting:
		return "prompting"
	case StateCorrecting:
		return "correcting"
	case StateConverged:
		return "converged"
	default:
		return "failed"
	}
}

// Reconciler keeps the store, the schema and the environment consistent
type Reconciler struct {
	store     Store
	prompter  prompt.Prompter
	env       env.Projector
	schema    schema.ConfigMap
	logger    *zap.Logger
	maxPasses int
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxPasses bounds the number of reading passes per reconciliation
func WithMaxPasses(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

// WithSchema replaces the compiled-in default schema
func WithSchema(s schema.ConfigMap) Option {
	return func(r *Reconciler) {
		r.schema = s.Clone()
	}
}

// New creates a reconciler over store using the default schema
func New(store Store, prompter prompt.Prompter, projector env.Projector, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:     store,
		prompter:  prompter,
		env:       projector,
		schema:    schema.Default(),
		logger:    zap.NewNop(),
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schema returns a copy of the schema in effect. After a bootstrap it
// carries the operator's answers as fallback values.
func (r *Reconciler) Schema() schema.ConfigMap {
	return r.schema.Clone()
}

// Start bootstraps the store when it does not exist, then reconciles
func (r *Reconciler) Start(ctx context.Context) (schema.ConfigMap, error) {
	if !r.store.Exists() {
		if err := r.bootstrap(ctx); err != nil {
			return nil, err
		}
	}
	return r.ReadConfig(ctx)
}

func (r *Reconciler) bootstrap(ctx context.Context) error {
	r.logger.Info("no store found, collecting initial configuration",
		zap.String("state", StateBootstrap.String()),
		zap.String("path", r.store.Path()),
		zap.Int("keys", len(r.schema)))

	answers, err := r.ask(ctx, r.schema)
	if err != nil {
		return err
	}
	if err := r.store.Write(answers, true); err != nil {
		return r.storeError(err)
	}
	r.schema = answers
	return nil
}

// ReadConfig reconciles the store with the schema and returns the live
// configuration, whose key set equals the schema's
func (r *Reconciler) ReadConfig(ctx context.Context) (schema.ConfigMap, error) {
	for pass := 1; pass <= r.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stored, err := r.read()
		if err != nil {
			r.logger.Debug("reconciliation failed", zap.String("state", StateFailed.String()), zap.Error(err))
			return nil, err
		}
		if err := r.env.Project(stored); err != nil {
			return nil, &Error{Kind: KindProjection, Path: r.store.Path(), Err: err}
		}

		newKeys, staleKeys := schema.Diff(stored, r.schema)
		if len(newKeys) == 0 && len(staleKeys) == 0 {
			r.logger.Debug("configuration converged",
				zap.String("state", StateConverged.String()),
				zap.Int("pass", pass),
				zap.Int("keys", len(stored)))
			return stored, nil
		}

		if len(newKeys) > 0 {
			pending := make(schema.ConfigMap, len(newKeys))
			for _, k := range newKeys {
				r.logger.Debug("inserting key", zap.String("key", k), zap.String("state", StatePrompting.String()))
				pending[k] = r.schema[k]
				stored[k] = r.schema[k]
			}

			answers, err := r.ask(ctx, pending)
			if err != nil {
				return nil, err
			}
			stored = schema.Merge(stored, answers)
		}

		for _, k := range staleKeys {
			r.logger.Debug("deleting key", zap.String("key", k), zap.String("state", StateCorrecting.String()))
			delete(stored, k)
		}
		if len(staleKeys) > 0 {
			if err := r.env.Unproject(staleKeys...); err != nil {
				return nil, &Error{Kind: KindProjection, Path: r.store.Path(), Err: err}
			}
		}

		if err := r.store.Write(stored, true); err != nil {
			return nil, r.storeError(err)
		}
		r.logger.Info("configuration corrected",
			zap.Int("pass", pass),
			zap.Int("inserted", len(newKeys)),
			zap.Int("deleted", len(staleKeys)))
	}

	return nil, &Error{Kind: KindUnstable, Path: r.store.Path(), Passes: r.maxPasses}
}

// read runs the Reading state, recovering from corruption where the
// failure class allows it
func (r *Reconciler) read() (schema.ConfigMap, error) {
	stored, err := r.store.Read()
	if err == nil {
		return stored, nil
	}

	path, backup := r.store.Path(), r.store.BackupPath()
	switch {
	case errors.Is(err, storage.ErrIntegrity):
		renamed, qerr := r.store.Quarantine()
		if qerr != nil {
			r.logger.Error("store failed integrity verification and could not be quarantined",
				zap.String("path", path), zap.Error(qerr))
			return nil, &Error{Kind: KindIntegrity, Path: path, BackupPath: backup, Err: errors.Join(err, qerr)}
		}
		r.logger.Warn("store failed integrity verification, quarantined",
			zap.String("path", path), zap.String("backup", renamed))
		return nil, &Error{Kind: KindIntegrity, Path: path, BackupPath: renamed, Renamed: true, Err: err}

	case errors.Is(err, storage.ErrCorrupt):
		if rerr := r.store.Remove(); rerr != nil {
			return nil, &Error{Kind: KindCorrupt, Path: path, Err: errors.Join(err, rerr)}
		}
		r.logger.Warn("store content is corrupt, removed", zap.String("path", path))
		return nil, &Error{Kind: KindCorrupt, Path: path, Removed: true, Err: err}

	default:
		return nil, r.storeError(err)
	}
}

func (r *Reconciler) storeError(err error) error {
	kind := KindUnavailable
	switch {
	case errors.Is(err, storage.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, storage.ErrIntegrity):
		kind = KindIntegrity
	case errors.Is(err, storage.ErrCorrupt):
		kind = KindCorrupt
	case errors.Is(err, storage.ErrInvalidConfig):
		kind = KindInvalid
	}
	return &Error{Kind: kind, Path: r.store.Path(), Err: err}
}

// ask hands pending values to the Prompter and checks the answer keeps
// the key set intact
func (r *Reconciler) ask(ctx context.Context, pending schema.ConfigMap) (schema.ConfigMap, error) {
	answers, err := r.prompter.Ask(ctx, pending.Clone())
	if err != nil {
		return nil, &Error{Kind: KindPrompt, Path: r.store.Path(), Err: err}
	}
	if !schema.SameKeys(answers, pending) {
		added, dropped := schema.Diff(pending, answers)
		return nil, &Error{
			Kind: KindPrompt,
			Path: r.store.Path(),
			Err:  fmt.Errorf("answers changed the key set (added %v, dropped %v)", added, dropped),
		}
	}
	return answers, nil
}

// UpdateConfig merges delta over the stored configuration and projects it.
// Keys outside the schema are rejected.
func (r *Reconciler) UpdateConfig(ctx context.Context, delta schema.ConfigMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, k := range delta.Keys() {
		if !r.schema.Has(k) {
			return fmt.Errorf("%w: %s", ErrUnknownKey, k)
		}
	}

	if err := r.store.Write(delta, false); err != nil {
		return r.storeError(err)
	}
	if err := r.env.Project(delta); err != nil {
		return &Error{Kind: KindProjection, Path: r.store.Path(), Err: err}
	}
	return nil
}

// RemoveConfig deletes the store. A missing store is reported, not ignored.
func (r *Reconciler) RemoveConfig() error {
	return r.store.Remove()
}
