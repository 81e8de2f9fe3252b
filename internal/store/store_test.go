package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ── Registrations ──

func TestUpsertAndGetRegistration(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertRegistration("a@b.com", "H1", "student"); err != nil {
		t.Fatalf("UpsertRegistration: %v", err)
	}

	reg, err := s.GetRegistration("a@b.com")
	if err != nil {
		t.Fatalf("GetRegistration: %v", err)
	}
	if reg == nil {
		t.Fatal("registration not found after upsert")
	}
	if reg.ChannelHandle != "H1" || reg.Role != "student" {
		t.Fatalf("got %+v", reg)
	}
	if reg.CreatedAt == 0 || reg.UpdatedAt == 0 {
		t.Fatal("timestamps should be set")
	}
}

func TestGetRegistration_NotFound(t *testing.T) {
	s := newTestStore(t)
	reg, err := s.GetRegistration("nobody@b.com")
	if err != nil {
		t.Fatalf("GetRegistration: %v", err)
	}
	if reg != nil {
		t.Fatalf("expected nil, got %+v", reg)
	}
}

func TestUpsertRegistration_OverwritesHandle(t *testing.T) {
	s := newTestStore(t)
	s.UpsertRegistration("a@b.com", "H1", "student")
	first, _ := s.GetRegistration("a@b.com")

	time.Sleep(2 * time.Millisecond)
	if err := s.UpsertRegistration("a@b.com", "H2", "student"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	reg, _ := s.GetRegistration("a@b.com")
	if reg.ChannelHandle != "H2" {
		t.Fatalf("handle = %q, want H2", reg.ChannelHandle)
	}
	if reg.CreatedAt != first.CreatedAt {
		t.Fatal("created_at should survive re-registration")
	}
	if reg.UpdatedAt <= first.UpdatedAt {
		t.Fatal("updated_at should advance on re-registration")
	}

	n, _ := s.CountRegistrations()
	if n != 1 {
		t.Fatalf("count = %d, want 1 (overwrite, not versioned)", n)
	}
}

func TestUpsertRegistration_MergeRetainsUnspecifiedFields(t *testing.T) {
	s := newTestStore(t)
	s.UpsertRegistration("a@b.com", "H1", "teacher")

	// handle refresh with no role keeps the stored role
	if err := s.UpsertRegistration("a@b.com", "H2", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	reg, _ := s.GetRegistration("a@b.com")
	if reg.Role != "teacher" {
		t.Fatalf("role = %q, want teacher retained", reg.Role)
	}

	// role change with no handle keeps the stored handle
	if err := s.UpsertRegistration("a@b.com", "", "admin"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	reg, _ = s.GetRegistration("a@b.com")
	if reg.ChannelHandle != "H2" || reg.Role != "admin" {
		t.Fatalf("got %+v", reg)
	}
}

func TestUpsertRegistration_EmptyEmail(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertRegistration("", "H1", "student"); err == nil {
		t.Fatal("empty email should be rejected")
	}
}

func TestDeleteRegistration(t *testing.T) {
	s := newTestStore(t)
	s.UpsertRegistration("a@b.com", "H1", "student")
	if err := s.DeleteRegistration("a@b.com"); err != nil {
		t.Fatalf("DeleteRegistration: %v", err)
	}
	reg, _ := s.GetRegistration("a@b.com")
	if reg != nil {
		t.Fatal("registration should be gone")
	}

	// deleting a missing row is not an error
	if err := s.DeleteRegistration("a@b.com"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestPruneStaleRegistrations(t *testing.T) {
	s := newTestStore(t)
	s.UpsertRegistration("old@b.com", "H1", "student")
	s.UpsertRegistration("new@b.com", "H2", "teacher")

	// age one row artificially
	old := time.Now().Add(-48 * time.Hour).UnixMilli()
	if _, err := s.DB.Exec(`UPDATE channel_registrations SET updated_at = ? WHERE user_email = ?`, old, "old@b.com"); err != nil {
		t.Fatalf("age row: %v", err)
	}

	pruned, err := s.PruneStaleRegistrations(24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneStaleRegistrations: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}

	if reg, _ := s.GetRegistration("old@b.com"); reg != nil {
		t.Fatal("stale registration should be pruned")
	}
	if reg, _ := s.GetRegistration("new@b.com"); reg == nil {
		t.Fatal("fresh registration should survive")
	}
}
