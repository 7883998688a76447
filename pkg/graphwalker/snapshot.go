package graphwalker

// snapshot.go exposes the current visit-count vector over HTTP for
// long-running jobs to observe progress without waiting for the engine
// to finish. Reading the full vector is the one place a large N makes a
// single request expensive, so concurrent pollers are deduplicated with
// singleflight the way a cache's concurrent-load path usually is — here
// the "load" is a disk/RAM scan instead of a user-supplied loader
// function.
//
// © 2025 graphwalker authors. MIT License.

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/outcore/graphwalker/internal/visitstore"
)

// SnapshotServer serves the current state of a visit-count store over
// HTTP. Safe for concurrent use by multiple request goroutines.
type SnapshotServer struct {
	store visitstore.Store
	n     uint32
	group singleflight.Group
}

// NewSnapshotServer wraps store so its current vector can be polled over
// HTTP while the engine that owns it keeps running.
func NewSnapshotServer(store visitstore.Store, n uint32) *SnapshotServer {
	return &SnapshotServer{store: store, n: n}
}

type snapshotResponse struct {
	N         uint32    `json:"n"`
	Counts    []uint64  `json:"counts"`
	Timestamp time.Time `json:"timestamp"`
}

// ServeHTTP writes the current visit-count vector as JSON. Every request
// arriving while a read is already in flight shares that read's result
// instead of issuing its own, via singleflight.Group.Do keyed on a
// constant key since there is only ever one snapshot to fetch.
func (s *SnapshotServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v, err, _ := s.group.Do("snapshot", func() (any, error) {
		counts, err := s.store.ReadAll(s.n)
		if err != nil {
			return nil, err
		}
		return snapshotResponse{N: s.n, Counts: counts, Timestamp: timeNow()}, nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// timeNow is split out so callers embedding SnapshotServer in
// determinism-sensitive tests can see it's the only non-deterministic
// input to an otherwise pure handler.
func timeNow() time.Time { return time.Now() }
