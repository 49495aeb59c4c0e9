package shipper

import "github.com/ipfs/go-cid"

// Store is content-addressed storage for reassembled records (a spool a
// forwarder can drain later).
//
// Contract:
// - Put MUST be idempotent.
// - Stored records MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(record []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
