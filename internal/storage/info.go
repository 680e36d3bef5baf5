package storage

import (
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Info is the unencrypted store metadata
type Info struct {
	ID       string
	Version  string
	Created  time.Time
	Modified time.Time
	Size     int64
}

// Info reads the store metadata. No passphrase is needed.
func (s *Store) Info() (*Info, error) {
	db, err := s.open(false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	info := &Info{}
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta == nil {
			return fmt.Errorf("%w: meta bucket not found", ErrCorrupt)
		}
		info.ID = string(meta.Get(MetaStoreID))
		info.Version = string(meta.Get(MetaVersion))
		if data := meta.Get(MetaCreated); data != nil {
			if err := info.Created.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("%w: created time: %v", ErrCorrupt, err)
			}
		}
		if data := meta.Get(MetaModified); data != nil {
			if err := info.Modified.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("%w: modified time: %v", ErrCorrupt, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if st, err := os.Stat(s.path); err == nil {
		info.Size = st.Size()
	}
	return info, nil
}

// ID returns the store id, used as the keyring account
func (s *Store) ID() (string, error) {
	info, err := s.Info()
	if err != nil {
		return "", err
	}
	if info.ID == "" {
		return "", fmt.Errorf("%w: store id not found", ErrCorrupt)
	}
	return info.ID, nil
}
