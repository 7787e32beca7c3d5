// Package stats implements the statistics file layout of spec.md #6: a
// Timer that accumulates elapsed wall-clock time across start/stop
// cycles, and a Stats record serialized both as human-readable JSON and
// as a gob-encoded binary blob (the closest standard-library analogue to
// the Python source's pickle, used by the original tabulator to reload
// structured run data — see DESIGN.md).
//
// Grounded on `original_source/kipro2/utils/statistics.py`'s `Timer` and
// `Statistics`.
package stats

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Timer accumulates elapsed time across start/stop cycles, matching the
// source's `Timer` (`_elapsed` + `_timer_start`).
type Timer struct {
	elapsed time.Duration
	start   *time.Time
}

// Start begins timing. Panics if the timer is already running, mirroring
// the source's assertion ("cannot start timer twice without stopping in
// between").
func (t *Timer) Start() {
	if t.start != nil {
		panic("stats: cannot start timer twice without stopping in between")
	}
	now := time.Now()
	t.start = &now
}

// Stop ends timing, adding the elapsed interval to the running total.
func (t *Timer) Stop() {
	if t.start == nil {
		panic("stats: cannot stop timer that is not running")
	}
	t.elapsed += time.Since(*t.start)
	t.start = nil
}

// Value returns the timer's current accumulated duration, including a
// still-running interval if Start was called without a matching Stop.
func (t Timer) Value() time.Duration {
	if t.start != nil {
		return t.elapsed + time.Since(*t.start)
	}
	return t.elapsed
}

// Seconds returns Value in fractional seconds, the unit spec.md #6 names
// for total_time/compute_formulae_time/sat_check_time.
func (t Timer) Seconds() float64 { return t.Value().Seconds() }

func (t Timer) String() string {
	return fmt.Sprintf("%.2f s", t.Seconds())
}

// MarshalJSON encodes a Timer as its elapsed seconds, matching the
// source's StatisticsEncoder (`isinstance(obj, Timer): return obj.value`).
func (t Timer) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Seconds())
}

// GobEncode/GobDecode let gob round-trip a Timer as a single float64 of
// elapsed seconds, the pickle-equivalent persisted form.
func (t Timer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t.Seconds()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Timer) GobDecode(data []byte) error {
	var seconds float64
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&seconds); err != nil {
		return err
	}
	t.elapsed = time.Duration(seconds * float64(time.Second))
	t.start = nil
	return nil
}

// NewRunningTimer builds a Timer already started, matching the source's
// `_make_running_timer` (used for total_time's zero value).
func NewRunningTimer() Timer {
	t := Timer{}
	t.Start()
	return t
}

// Status is the terminal (or in-flight) classification of a verification
// worker (spec.md #6, "status ∈ {started, refuted, inductive, undecided,
// sigterm, oom, err}").
type Status string

const (
	StatusStarted   Status = "started"
	StatusRefuted   Status = "refuted"
	StatusInductive Status = "inductive"
	StatusUndecided Status = "undecided"
	StatusSigterm   Status = "sigterm"
	StatusOOM       Status = "oom"
	StatusErr       Status = "err"
)

// Stats is the per-worker statistics record of spec.md #6's "Statistics
// file layout", grounded on the source's `Statistics` attrs class.
type Stats struct {
	Args                map[string]interface{} `json:"args"`
	Status              Status                  `json:"status"`
	TotalTime           Timer                   `json:"total_time"`
	ComputeFormulaeTime Timer                   `json:"compute_formulae_time"`
	SatCheckTime        Timer                   `json:"sat_check_time"`
	K                   *int                    `json:"k"`
	NumberFormulae      *int                    `json:"number_formulae"`
}

// New builds a Stats record with a running total-time timer and
// status "started", matching the source's field defaults.
func New(args map[string]interface{}) *Stats {
	return &Stats{
		Args:      args,
		Status:    StatusStarted,
		TotalTime: NewRunningTimer(),
	}
}

func (s *Stats) String() string {
	return fmt.Sprintf(
		"------ Statistics ------\nTotal time = %s.\nTime for computing formulae = %s.\nTime for sat checks: %s.",
		s.TotalTime, s.ComputeFormulaeTime, s.SatCheckTime,
	)
}

// DumpToFiles writes path+".json" (human-readable) and path+".gob" (the
// binary, pickle-equivalent form the original tabulator reloads for
// structured analysis) — spec.md #6's "two files at <stats-path>.pickle
// and <stats-path>.json".
func (s *Stats) DumpToFiles(path string) error {
	jsonBytes, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return errors.Wrap(err, "stats: marshalling json")
	}
	if err := os.WriteFile(path+".json", jsonBytes, 0o644); err != nil {
		return errors.Wrap(err, "stats: writing json file")
	}

	var gobBuf bytes.Buffer
	if err := gob.NewEncoder(&gobBuf).Encode(s); err != nil {
		return errors.Wrap(err, "stats: gob-encoding")
	}
	if err := os.WriteFile(path+".gob", gobBuf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "stats: writing gob file")
	}
	return nil
}

// LoadFromGob reads back a Stats record previously written by
// DumpToFiles, used by a benchmark tabulator (out of scope for this
// repo, spec.md #1) to reload structured run data.
func LoadFromGob(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "stats: reading gob file")
	}
	var s Stats
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "stats: gob-decoding")
	}
	return &s, nil
}
