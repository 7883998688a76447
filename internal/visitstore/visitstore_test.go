package visitstore

import (
	"path/filepath"
	"testing"
)

func TestFileStoreAddWindowAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.bin")
	s, err := Open(path, 10, Width64, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.AddWindow(2, []uint64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddWindow(2, []uint64{10, 0, 5}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadAll(10)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{0, 0, 11, 2, 8, 0, 0, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counter[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFileStoreWidth32AddWindowAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits32.bin")
	s, err := Open(path, 4, Width32, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.AddWindow(0, []uint64{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadAll(4)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counter[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRAMStoreAddWindowAndReadAll(t *testing.T) {
	s, err := Open("", 5, Width64, true)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.AddWindow(1, []uint64{7, 8}); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadAll(5)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{0, 7, 8, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counter[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestOpenRejectsInvalidWidth(t *testing.T) {
	if _, err := Open("", 1, Width(3), true); err == nil {
		t.Fatal("Open() with an invalid width should fail")
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.bin")
	s1, err := Open(path, 3, Width64, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.AddWindow(0, []uint64{1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path, 3, Width64, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, err := s2.ReadAll(3)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != 1 {
			t.Fatalf("counter[%d] = %d, want 1 after reopen", i, v)
		}
	}
}
