package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/illarion/confvault/internal/crypto"
	"github.com/illarion/confvault/internal/schema"
)

const (
	FormatVersion      = "1"
	FilePermSecure     = 0600 // File: owner rw only
	BackupSuffix       = ".bak"
	DefaultLockTimeout = 2 * time.Second
)

// Bucket names
var (
	MetaBucket = []byte("meta") // version, store id, timestamps - unencrypted
	DataBucket = []byte("data") // encrypted configuration blob
)

// Meta and data keys
var (
	MetaVersion  = []byte("version")
	MetaStoreID  = []byte("store_id")
	MetaCreated  = []byte("created")
	MetaModified = []byte("modified")
	DataConfig   = []byte("config")
)

// Cipher seals and opens the serialized configuration. Decrypt must wrap
// crypto.ErrAuthFailed when authentication fails.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Store provides BBolt-backed storage for one encrypted configuration
type Store struct {
	path        string
	cipher      Cipher
	logger      *zap.Logger
	lockTimeout time.Duration
	clock       clockwork.Clock
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for tolerated failures
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLockTimeout bounds how long opening waits for the file lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithClock sets the clock used for the created and modified timestamps
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a store for the file at path. Nothing is opened until the
// first operation.
func New(path string, cipher Cipher, opts ...Option) *Store {
	s := &Store{
		path:        path,
		cipher:      cipher,
		logger:      zap.NewNop(),
		lockTimeout: DefaultLockTimeout,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the store file path
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the sibling path used to preserve a file that failed
// integrity verification
func (s *Store) BackupPath() string {
	return s.path + BackupSuffix
}

// Exists reports whether the store file is present
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// BackupExists reports whether a quarantined file is present
func (s *Store) BackupExists() bool {
	_, err := os.Stat(s.BackupPath())
	return err == nil
}

// open opens the database. Unless create is set, a missing file is
// reported as ErrNotFound instead of being created.
func (s *Store) open(create bool) (*bolt.DB, error) {
	if !create {
		if _, err := os.Stat(s.path); err != nil {
			if os.IsNotExist(err) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	db, err := bolt.Open(s.path, FilePermSecure, &bolt.Options{Timeout: s.lockTimeout})
	if err != nil {
		return nil, classifyOpen(s.path, err)
	}
	return db, nil
}

// Read decrypts and parses the stored configuration
func (s *Store) Read() (schema.ConfigMap, error) {
	db, err := s.open(false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return s.read(db)
}

func (s *Store) read(db *bolt.DB) (schema.ConfigMap, error) {
	blob, err := getBlob(db)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.cipher.Decrypt(blob)
	if err != nil {
		return nil, classifyDecrypt(err)
	}
	defer crypto.ClearBytes(plaintext)

	cfg, err := schema.Decode(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return cfg, nil
}

// Write persists cfg. With force the stored configuration is replaced
// verbatim; otherwise cfg is merged over it, new keys winning. A merge over
// an unreadable store proceeds from an empty base. Nothing is created on
// disk unless the configuration serializes and encrypts.
func (s *Store) Write(cfg schema.ConfigMap, force bool) error {
	if !force {
		db, err := s.open(false)
		switch {
		case err == nil:
			defer db.Close()
			return s.seal(db, schema.Merge(s.existing(db), cfg), s.cipher)
		case !errors.Is(err, ErrNotFound):
			return err
		}
		// merging over a missing store writes cfg as is
	}

	blob, err := s.encrypt(cfg, s.cipher)
	if err != nil {
		return err
	}

	created := !s.Exists()
	db, err := s.open(true)
	if err != nil {
		return err
	}
	err = putBlob(db, blob, s.clock.Now())
	db.Close()
	if err != nil {
		if created {
			_ = os.Remove(s.path)
		}
		return fmt.Errorf("failed to store configuration: %w", err)
	}
	return nil
}

// existing reads the base for a merge write
func (s *Store) existing(db *bolt.DB) schema.ConfigMap {
	cfg, err := s.read(db)
	switch {
	case err == nil:
		return cfg
	case !errors.Is(err, errNoBlob):
		s.logger.Warn("existing configuration unreadable, merging over empty",
			zap.String("path", s.path), zap.Error(err))
	}
	return schema.ConfigMap{}
}

// encrypt serializes and encrypts cfg
func (s *Store) encrypt(cfg schema.ConfigMap, cipher Cipher) ([]byte, error) {
	plaintext, err := schema.Encode(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	defer crypto.ClearBytes(plaintext)

	blob, err := cipher.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt configuration: %w", err)
	}
	return blob, nil
}

// seal encrypts and stores cfg in an already open database, in a single
// transaction
func (s *Store) seal(db *bolt.DB, cfg schema.ConfigMap, cipher Cipher) error {
	blob, err := s.encrypt(cfg, cipher)
	if err != nil {
		return err
	}
	if err := putBlob(db, blob, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to store configuration: %w", err)
	}
	return nil
}

// Remove deletes the store file
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: failed to remove %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}

// Quarantine renames the store file to the backup path. An existing backup
// is never overwritten: ErrBackupExists is returned and nothing is touched.
func (s *Store) Quarantine() (string, error) {
	backup := s.BackupPath()

	if _, err := os.Stat(backup); err == nil {
		return "", fmt.Errorf("%w: %s", ErrBackupExists, backup)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := os.Rename(s.path, backup); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: failed to rename %s: %v", ErrUnavailable, s.path, err)
	}
	return backup, nil
}

// Rekey re-encrypts the stored configuration under next. The current
// configuration must read cleanly first.
func (s *Store) Rekey(next Cipher) error {
	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := s.read(db)
	if err != nil {
		return err
	}

	if err := s.seal(db, cfg, next); err != nil {
		return err
	}
	s.cipher = next
	return nil
}

func getBlob(db *bolt.DB) ([]byte, error) {
	var blob []byte
	err := db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(DataBucket)
		if data == nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, errNoBlob)
		}
		v := data.Get(DataConfig)
		if v == nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, errNoBlob)
		}
		// Make a copy since the slice is only valid during the transaction
		blob = append([]byte(nil), v...)
		return nil
	})
	return blob, err
}

func putBlob(db *bolt.DB, blob []byte, at time.Time) error {
	return db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(MetaBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", MetaBucket, err)
		}
		data, err := tx.CreateBucketIfNotExists(DataBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", DataBucket, err)
		}

		now, _ := at.MarshalBinary()
		if meta.Get(MetaStoreID) == nil {
			if err := meta.Put(MetaStoreID, []byte(uuid.NewString())); err != nil {
				return err
			}
		}
		if meta.Get(MetaCreated) == nil {
			if err := meta.Put(MetaCreated, now); err != nil {
				return err
			}
		}
		if err := meta.Put(MetaVersion, []byte(FormatVersion)); err != nil {
			return err
		}
		if err := meta.Put(MetaModified, now); err != nil {
			return err
		}

		return data.Put(DataConfig, blob)
	})
}
