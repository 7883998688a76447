// Command graphwalker-inspect polls a running Engine's snapshot endpoint
// and prints its progress: same flag shape (one-shot vs -watch, -json),
// same generic map[string]any decode to avoid version skew between this
// CLI and the library it polls.
//
// The target process is expected to expose:
//   - GET /debug/graphwalker/snapshot — JSON visit-count snapshot
//     (pkg/graphwalker.SnapshotServer).
//   - GET /metrics — Prometheus metrics, if the engine was built with
//     graphwalker.WithMetrics.
//
// Each polled snapshot is additionally persisted into an embedded Badger
// database keyed by its timestamp, purely as local client-side history so
// -since can diff against an earlier poll; this has nothing to do with
// the engine's own mandated file formats.
//
// © 2025 graphwalker authors. MIT License.
package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

type options struct {
	target      string
	watch       bool
	interval    time.Duration
	json        bool
	historyDir  string
	since       time.Duration
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.target, "target", "http://localhost:6061", "base URL of the running engine's debug server")
	flag.BoolVar(&o.watch, "watch", false, "poll repeatedly instead of a single fetch")
	flag.DurationVar(&o.interval, "interval", 2*time.Second, "poll interval in -watch mode")
	flag.BoolVar(&o.json, "json", false, "print raw JSON instead of a formatted summary")
	flag.StringVar(&o.historyDir, "history-dir", "", "Badger directory for local snapshot history (disabled if empty)")
	flag.DurationVar(&o.since, "since", 0, "diff total visits against the closest snapshot at least this long ago")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	var hist *history
	if opts.historyDir != "" {
		h, err := openHistory(opts.historyDir)
		if err != nil {
			fatal(err)
		}
		defer h.Close()
		hist = h
	}

	if opts.watch {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		for {
			if err := pollOnce(ctx, opts, hist); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			select {
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return
			}
		}
	}

	if err := pollOnce(ctx, opts, hist); err != nil {
		fatal(err)
	}
}

func pollOnce(ctx context.Context, opts *options, hist *history) error {
	snap, err := fetchSnapshot(ctx, opts.target)
	if err != nil {
		return err
	}

	now := timeFromJSON(snap["timestamp"])
	if hist != nil && !now.IsZero() {
		if err := hist.Record(now, snap); err != nil {
			fmt.Fprintln(os.Stderr, "history: record:", err)
		}
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	if err := prettyPrint(snap); err != nil {
		return err
	}

	if opts.since > 0 && hist != nil && !now.IsZero() {
		prior, priorTime, ok, err := hist.Closest(now.Add(-opts.since))
		if err != nil {
			return err
		}
		if ok {
			printDiff(priorTime, now, prior, snap)
		}
	}
	return nil
}

func fetchSnapshot(ctx context.Context, base string) (map[string]any, error) {
	url := base + "/debug/graphwalker/snapshot"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	var data map[string]any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func prettyPrint(data map[string]any) error {
	counts, _ := data["counts"].([]any)
	var total float64
	for _, c := range counts {
		total += toFloat(c)
	}
	fmt.Printf("N:        %v\n", data["n"])
	fmt.Printf("Total visits: %.0f\n", total)
	fmt.Printf("Timestamp: %v\n", data["timestamp"])
	return nil
}

func printDiff(priorTime, now time.Time, prior, cur map[string]any) {
	priorTotal := sumCounts(prior)
	curTotal := sumCounts(cur)
	elapsed := now.Sub(priorTime)
	fmt.Printf("since %s ago: visits %.0f -> %.0f (+%.0f, %.1f/s)\n",
		elapsed.Round(time.Second), priorTotal, curTotal, curTotal-priorTotal, (curTotal-priorTotal)/elapsed.Seconds())
}

func sumCounts(data map[string]any) float64 {
	counts, _ := data["counts"].([]any)
	var total float64
	for _, c := range counts {
		total += toFloat(c)
	}
	return total
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func timeFromJSON(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "graphwalker-inspect:", err)
	os.Exit(1)
}

// history is a thin Badger-backed append log of polled snapshots, keyed
// by a big-endian Unix-nanosecond timestamp so Badger's iterator walks
// entries in chronological order.
type history struct {
	db *badger.DB
}

func openHistory(dir string) (*history, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	return &history{db: db}, nil
}

func (h *history) Close() error { return h.db.Close() }

func (h *history) Record(t time.Time, snap map[string]any) error {
	buf, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return h.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(t), buf)
	})
}

// Closest returns the most recent recorded snapshot at or before t.
func (h *history) Closest(t time.Time) (map[string]any, time.Time, bool, error) {
	var snap map[string]any
	var found time.Time
	ok := false
	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()
		seek := historyKey(t)
		for it.Seek(seek); it.ValidForPrefix(nil); it.Next() {
			item := it.Item()
			k := item.Key()
			ns := int64(binary.BigEndian.Uint64(k))
			found = time.Unix(0, ns)
			if err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &snap)
			}); err != nil {
				return err
			}
			ok = true
			return nil
		}
		return nil
	})
	return snap, found, ok, err
}

func historyKey(t time.Time) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(t.UnixNano()))
	return k[:]
}
