// Package spool is a filesystem-backed record spool.
//
// Reassembled records are stored immutably, keyed by their CID, so a
// forwarder can drain the directory later with at-least-once semantics.
// The spool is offline and deterministic: it never uses the network and
// never depends on wall-clock time.
package spool

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/logship/digest"
	"xdao.co/logship/shipper"
)

// Spool implements shipper.Store on a local directory.
type Spool struct {
	root string
}

// New constructs a spool rooted at root. The directory is created if needed.
func New(root string) (*Spool, error) {
	if root == "" {
		return nil, errors.New("spool: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Spool{root: root}, nil
}

func (s *Spool) Put(record []byte) (cid.Cid, error) {
	id, err := digest.CIDObj(record)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, shipper.ErrInvalidCID
	}

	path := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := s.Get(id)
			if rerr != nil {
				// Exists but unreadable or corrupted: immutability violation.
				return cid.Undef, shipper.ErrImmutable
			}
			if string(existing) != string(record) {
				return cid.Undef, shipper.ErrImmutable
			}
			return id, nil
		}
		return cid.Undef, err
	}

	if _, err := f.Write(record); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}

	return id, nil
}

func (s *Spool) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, shipper.ErrInvalidCID
	}
	b, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shipper.ErrNotFound
		}
		return nil, err
	}
	got, err := digest.CIDObj(b)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, shipper.ErrCIDMismatch
	}
	return b, nil
}

func (s *Spool) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(s.pathFor(id))
	return err == nil
}

// List returns the CIDs of every spooled record, in unspecified order.
func (s *Spool) List() ([]cid.Cid, error) {
	var out []cid.Cid
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		id, derr := cid.Decode(d.Name())
		if derr != nil || !id.Defined() {
			// Foreign files in the spool dir are ignored, not an error.
			return nil
		}
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes a drained record. Removing an absent record is not an
// error: drains may race.
func (s *Spool) Remove(id cid.Cid) error {
	if !id.Defined() {
		return shipper.ErrInvalidCID
	}
	err := os.Remove(s.pathFor(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Spool) pathFor(id cid.Cid) string {
	str := id.String()
	if len(str) < 2 {
		return filepath.Join(s.root, str)
	}
	return filepath.Join(s.root, str[:2], str)
}
