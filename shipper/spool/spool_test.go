package spool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/logship/digest"
	"xdao.co/logship/frame"
	"xdao.co/logship/shipper"
)

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty root")
	}
}

func TestPutGetHasRoundTrip(t *testing.T) {
	sp, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	record := []byte("spooled record")
	id, err := sp.Put(record)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !id.Defined() {
		t.Fatal("expected defined CID")
	}
	if id.String() != digest.CID(record) {
		t.Errorf("CID %s does not match content address", id)
	}
	if !sp.Has(id) {
		t.Error("Has: expected true")
	}
	got, err := sp.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, record) {
		t.Errorf("Get = %q, want %q", got, record)
	}
}

func TestPutIsIdempotent(t *testing.T) {
	sp, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	record := []byte("same bytes twice")
	a, err := sp.Put(record)
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}
	b, err := sp.Put(record)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if a != b {
		t.Errorf("CIDs differ: %s vs %s", a, b)
	}
}

func TestGetMissingRecord(t *testing.T) {
	sp, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := digest.CIDObj([]byte("never stored"))
	if err != nil {
		t.Fatalf("CIDObj: %v", err)
	}
	if _, err := sp.Get(id); !errors.Is(err, shipper.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
	if sp.Has(id) {
		t.Error("Has: expected false")
	}
}

func TestGetDetectsCorruption(t *testing.T) {
	root := t.TempDir()
	sp, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := sp.Put([]byte("pristine"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := sp.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := sp.Get(id); !errors.Is(err, shipper.ErrCIDMismatch) {
		t.Errorf("want ErrCIDMismatch, got %v", err)
	}
}

func TestListAndRemove(t *testing.T) {
	sp, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, _ := sp.Put([]byte("one"))
	b, _ := sp.Put([]byte("two"))

	ids, err := sp.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("List = %d entries, want 2", len(ids))
	}

	if err := sp.Remove(a); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if sp.Has(a) {
		t.Error("removed record still present")
	}
	if !sp.Has(b) {
		t.Error("unrelated record disappeared")
	}
	// Removing again is not an error: drains may race.
	if err := sp.Remove(a); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	root := t.TempDir()
	sp, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := sp.Put([]byte("real")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("not a record"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ids, err := sp.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("List = %d entries, want 1", len(ids))
	}
}

func TestSinkSpoolsVerifiedRecords(t *testing.T) {
	sink, err := NewSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}

	record := []byte("shipped through the sink")
	frames, err := frame.WrapWithDigest(record, 8)
	if err != nil {
		t.Fatalf("WrapWithDigest: %v", err)
	}
	if err := sink.Ship(context.Background(), frames); err != nil {
		t.Fatalf("Ship: %v", err)
	}

	id, err := digest.CIDObj(record)
	if err != nil {
		t.Fatalf("CIDObj: %v", err)
	}
	got, err := sink.Spool().Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, record) {
		t.Error("spooled record differs from shipped record")
	}
}

func TestSinkRejectsTamperedFrames(t *testing.T) {
	sink, err := NewSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	frames, err := frame.WrapWithDigest([]byte("will be tampered"), 4)
	if err != nil {
		t.Fatalf("WrapWithDigest: %v", err)
	}
	frames[0].Payload = []byte("EVIL")
	if err := sink.Ship(context.Background(), frames); !errors.Is(err, frame.ErrDigestMismatch) {
		t.Errorf("want ErrDigestMismatch, got %v", err)
	}
}
