package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/illarion/confvault/internal/config"
	"github.com/illarion/confvault/internal/core"
	"github.com/illarion/confvault/internal/crypto"
	"github.com/illarion/confvault/internal/env"
	"github.com/illarion/confvault/internal/keyring"
	"github.com/illarion/confvault/internal/prompt"
	"github.com/illarion/confvault/internal/storage"
)

// ErrPassphraseRequired is returned when no passphrase source is usable
var ErrPassphraseRequired = errors.New("passphrase required")

// PassphraseSource records where a passphrase came from
type PassphraseSource int

const (
	SourceEnv PassphraseSource = iota
	SourceKeyring
	SourcePrompt
)

func (s PassphraseSource) String() string {
	switch s {
	case SourceEnv:
		return prompt.PassphraseEnv
	case SourceKeyring:
		return "keyring"
	default:
		return "prompt"
	}
}

// Env is what every command runs against
type Env struct {
	Config config.Config
	Logger *zap.Logger
	In     io.Reader
	Out    io.Writer

	// ReadPassphrase and ReadPassphraseConfirm default to the terminal helpers
	ReadPassphrase        func(prompt string) ([]byte, error)
	ReadPassphraseConfirm func() ([]byte, error)

	terminal *prompt.Terminal
}

// NewEnv wires the process stdio
func NewEnv(cfg config.Config, logger *zap.Logger) *Env {
	return &Env{
		Config:                cfg,
		Logger:                logger,
		In:                    os.Stdin,
		Out:                   os.Stdout,
		ReadPassphrase:        prompt.ReadPassphrase,
		ReadPassphraseConfirm: prompt.ReadPassphraseConfirm,
	}
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

func (e *Env) println(args ...any) {
	fmt.Fprintln(e.Out, args...)
}

func (e *Env) term() *prompt.Terminal {
	if e.terminal == nil {
		e.terminal = prompt.NewTerminal(e.In, e.Out)
	}
	return e.terminal
}

func (e *Env) prompter() prompt.Prompter {
	if e.Config.NonInteractive {
		return prompt.Defaults{}
	}
	return e.term()
}

// confirm asks a yes/no question. Non-interactive runs answer no.
func (e *Env) confirm(question string) bool {
	if e.Config.NonInteractive {
		return false
	}
	ok, err := e.term().Confirm(question)
	if err != nil {
		return false
	}
	return ok
}

// newStore opens no file; it only binds the path and cipher
func (e *Env) newStore(cipher storage.Cipher) *storage.Store {
	return storage.New(e.Config.StorePath, cipher,
		storage.WithLogger(e.Logger),
		storage.WithLockTimeout(e.Config.LockTimeout))
}

// session is a store unlocked with a resolved passphrase
type session struct {
	env        *Env
	store      *storage.Store
	cipher     *crypto.PassphraseCipher
	passphrase []byte
	source     PassphraseSource
	projection *env.Projection
	rec        *core.Reconciler
}

// openSession resolves the passphrase and builds a reconciler over the
// store. A missing store asks for the passphrase twice.
func (e *Env) openSession() (*session, error) {
	s := &session{env: e, projection: env.NewProjection()}

	passphrase, source, cipher, err := e.resolvePassphrase()
	if err != nil {
		return nil, err
	}
	s.passphrase, s.source, s.cipher = passphrase, source, cipher
	s.store = e.newStore(cipher)

	var projector env.Projector = s.projection
	if e.Config.ProcessEnv {
		projector = env.Multi{s.projection, env.Process{}}
	}
	s.rec = core.New(s.store, e.prompter(), projector,
		core.WithLogger(e.Logger),
		core.WithMaxPasses(e.Config.MaxPasses))

	e.Logger.Debug("session opened",
		zap.String("store", e.Config.StorePath),
		zap.Stringer("passphrase_source", source))
	return s, nil
}

func (s *session) Close() {
	s.cipher.Destroy()
	crypto.ClearBytes(s.passphrase)
}

// resolvePassphrase tries CONFVAULT_PASSPHRASE, then the keyring, then the
// terminal. A keyring entry that fails verification is skipped so a stale
// entry never triggers quarantine on its own.
func (e *Env) resolvePassphrase() ([]byte, PassphraseSource, *crypto.PassphraseCipher, error) {
	if p := prompt.PassphraseFromEnv(); p != nil {
		c, err := e.cipher(p)
		return p, SourceEnv, c, err
	}

	probe := e.newStore(nil)
	exists := probe.Exists()

	if exists && e.Config.UseKeyring {
		if p, c, ok := e.keyringPassphrase(probe); ok {
			return p, SourceKeyring, c, nil
		}
	}

	if e.Config.NonInteractive {
		return nil, 0, nil, fmt.Errorf("%w: set %s", ErrPassphraseRequired, prompt.PassphraseEnv)
	}

	var (
		p   []byte
		err error
	)
	if exists {
		p, err = e.ReadPassphrase("Passphrase: ")
	} else {
		e.println("Creating a new store at " + e.Config.StorePath)
		p, err = e.ReadPassphraseConfirm()
	}
	if err != nil {
		return nil, 0, nil, err
	}
	c, err := e.cipher(p)
	return p, SourcePrompt, c, err
}

func (e *Env) keyringPassphrase(probe *storage.Store) ([]byte, *crypto.PassphraseCipher, bool) {
	id, err := probe.ID()
	if err != nil {
		return nil, nil, false
	}
	saved, err := keyring.GetPassphrase(id)
	if err != nil {
		if !errors.Is(err, keyring.ErrNoPassphrase) {
			e.Logger.Debug("keyring unavailable", zap.Error(err))
		}
		return nil, nil, false
	}

	p := []byte(saved)
	c, err := e.cipher(p)
	if err != nil {
		return nil, nil, false
	}
	if _, err := e.newStore(c).Read(); errors.Is(err, storage.ErrIntegrity) {
		e.Logger.Warn("keyring passphrase does not open the store, ignoring it", zap.String("store_id", id))
		c.Destroy()
		crypto.ClearBytes(p)
		return nil, nil, false
	}
	return p, c, true
}

func (e *Env) cipher(passphrase []byte) (*crypto.PassphraseCipher, error) {
	return crypto.NewPassphraseCipher(passphrase, e.Config.KDFIterations)
}

// OfferToSavePassphrase asks to cache a prompted passphrase in the keyring
func (s *session) OfferToSavePassphrase() {
	e := s.env
	if s.source != SourcePrompt || !e.Config.UseKeyring || e.Config.NonInteractive {
		return
	}
	id, err := s.store.ID()
	if err != nil || keyring.HasPassphrase(id) {
		return
	}
	if !e.confirm("Save passphrase to keyring?") {
		return
	}
	if err := keyring.SavePassphrase(id, string(s.passphrase)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s\n", err)
		return
	}
	e.println("Passphrase saved to keyring")
}

func errStoreMissing(path string) error {
	return fmt.Errorf("%w: %s", storage.ErrNotFound, path)
}

// HandleError prints err with its remediation and exits
func HandleError(err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
	os.Exit(1)
}

func describe(err error) string {
	var cerr *core.Error
	switch {
	case errors.As(err, &cerr):
		return cerr.Error()
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Sprintf("%s\nRun 'confvault start' first", err)
	case errors.Is(err, storage.ErrIntegrity):
		return fmt.Sprintf("%s\nCheck the passphrase", err)
	case errors.Is(err, ErrPassphraseRequired):
		return err.Error()
	case errors.Is(err, prompt.ErrPassphraseMismatch):
		return "passphrases do not match"
	case errors.Is(err, core.ErrUnknownKey):
		return fmt.Sprintf("%s\nRun 'confvault show' to list the known keys", err)
	default:
		return err.Error()
	}
}
