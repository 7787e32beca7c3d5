// Package verify orchestrates a single verification job: parsing the
// program, building its SNF/DNF decomposition, and driving the chosen
// checker(s) — bounded model checking, k-induction, or both racing
// concurrently — to a decision, while timing and persisting statistics.
//
// Grounded on `original_source/kipro2/cmd.py`'s `CheckTask`/`_run_check_task`
// (the checker dispatch and started/refuted/inductive/undecided/oom/err
// status lifecycle) and gokando's `internal/parallel.WorkerPool` for the
// "both" mode's two-way race.
package verify

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/moves-rwth/kipro2/internal/parallel"
	"github.com/moves-rwth/kipro2/pkg/bmcgen"
	"github.com/moves-rwth/kipro2/pkg/driver"
	"github.com/moves-rwth/kipro2/pkg/kindgen"
	"github.com/moves-rwth/kipro2/pkg/pgcl"
	"github.com/moves-rwth/kipro2/pkg/snf"
	"github.com/moves-rwth/kipro2/pkg/solver"
	"github.com/moves-rwth/kipro2/pkg/stats"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// raceWorkerTimeout bounds how long either side of a "both" race may run
// before the DeadlockDetector cancels it (spec.md #5's per-worker
// wall-clock resource policy): long enough for a deep BMC/k-induction
// search, short enough that a genuinely stuck race worker doesn't hang
// the job indefinitely.
const raceWorkerTimeout = 10 * time.Minute

// Checker selects which procedure(s) a Job runs.
type Checker int

const (
	CheckerBMC Checker = iota
	CheckerKInduction
	CheckerBoth
)

func (c Checker) String() string {
	switch c {
	case CheckerBMC:
		return "bmc"
	case CheckerKInduction:
		return "kind"
	default:
		return "both"
	}
}

// Job is the fully-resolved description of one verification run,
// mirroring `cmd.py`'s CheckTask.
type Job struct {
	Name            string
	Checker         Checker
	ProgramPath     string
	ProgramCode     string
	Post            string
	Pre             string
	StatsPath       string
	AssertInductive *int
	AssertRefute    *int
	Ert             bool

	MaxIterations              int
	UnrollingsBetweenSatChecks int
	SolverConfig               solver.Config
}

// DefaultMaxIterations bounds a driver's Run loop absent an explicit
// --assert-inductive/--assert-refute cutoff.
const DefaultMaxIterations = 1000

// Outcome is the terminal classification of one job, reused directly as
// the stats.Status persisted to disk.
type Outcome struct {
	Checker Checker
	Status  stats.Status
	Depth   int
	Err     error
}

// Run executes job.Checker: bmc or kind runs a single driver to
// completion; both races the two, cancelling the loser, and returns the
// winner's outcome (spec.md #7, "Two-worker race").
func Run(ctx context.Context, logger *zap.Logger, job Job) (Outcome, error) {
	if job.Checker != CheckerBoth {
		return runSingle(ctx, logger, job)
	}
	return runBoth(ctx, logger, job)
}

func runSingle(ctx context.Context, logger *zap.Logger, job Job) (Outcome, error) {
	st := stats.New(jobArgs(job))
	defer st.TotalTime.Stop()

	statsPath := job.StatsPath
	writeStatus := func(status stats.Status) {
		st.Status = status
		if statsPath != "" {
			if err := st.DumpToFiles(statsPath); err != nil {
				logger.Warn("failed to persist statistics", zap.Error(err))
			}
		}
	}
	writeStatus(stats.StatusStarted)

	outcome, err := runChecker(ctx, logger, job, st)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			writeStatus(stats.StatusSigterm)
			return outcome, err
		}
		writeStatus(classifyError(err))
		return outcome, err
	}
	writeStatus(outcome.Status)
	return outcome, nil
}

// runBoth races a bmc job and a kind job via the shared worker pool,
// cancelling whichever has not finished once the first decides
// (spec.md #7: "the first of BMC/k-induction to decide wins; the other
// is cancelled").
func runBoth(ctx context.Context, logger *zap.Logger, job Job) (Outcome, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := parallel.NewWorkerPool(2, raceWorkerTimeout)
	defer func() {
		pool.Shutdown()
		logger.Debug("race worker pool finished", zap.Stringer("stats", pool.GetStats()))
	}()

	go drainDeadlockAlerts(raceCtx, pool, logger)

	type result struct {
		outcome Outcome
		err     error
	}
	results := make(chan result, 2)

	submit := func(checker Checker, statsSuffix string) {
		sub := job
		sub.Checker = checker
		if sub.StatsPath != "" {
			sub.StatsPath = appendStem(sub.StatsPath, statsSuffix)
		}
		taskID := fmt.Sprintf("%s:%s", job.Name, checker)
		description := fmt.Sprintf("%s checker for job %q", checker, job.Name)
		_ = pool.Submit(raceCtx, taskID, description, func(taskCtx context.Context) {
			outcome, err := runSingle(taskCtx, logger.With(zap.String("checker", checker.String())), sub)
			results <- result{outcome, err}
		})
	}

	submit(CheckerBMC, "bmc")
	submit(CheckerKInduction, "kind")

	first := <-results
	cancel() // first decision wins; the loser observes ctx.Done() and reports cancelled
	second := <-results
	_ = second

	return first.outcome, first.err
}

// drainDeadlockAlerts logs each wall-clock timeout / stall alert the race
// pool's DeadlockDetector raises, until ctx is done.
func drainDeadlockAlerts(ctx context.Context, pool *parallel.WorkerPool, logger *zap.Logger) {
	alerts := pool.GetDeadlockDetector().GetAlerts()
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-alerts:
			logger.Warn("race worker deadlock alert", zap.String("task", alert.TaskID), zap.String("description", alert.Description))
		}
	}
}

func runChecker(ctx context.Context, logger *zap.Logger, job Job, st *stats.Stats) (Outcome, error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("checker panicked", zap.Any("recover", r), zap.ByteString("stack", debug.Stack()))
		}
	}()

	st.ComputeFormulaeTime.Start()
	prog, err := pgcl.ParseProgram(job.ProgramCode)
	if err != nil {
		return Outcome{Checker: job.Checker, Status: stats.StatusErr, Err: err}, errors.Wrap(err, "verify: parsing program")
	}
	post, err := pgcl.ParseExpr(job.Post)
	if err != nil {
		return Outcome{Checker: job.Checker, Status: stats.StatusErr, Err: err}, errors.Wrap(err, "verify: parsing post-expectation")
	}
	pre, err := pgcl.ParseExpr(job.Pre)
	if err != nil {
		return Outcome{Checker: job.Checker, Status: stats.StatusErr, Err: err}, errors.Wrap(err, "verify: parsing candidate bound")
	}

	acc := term.NewAccumulator()
	sv := solver.New(job.SolverConfig)

	res, err := snf.Build(ctx, prog, post, acc, sv)
	if err != nil {
		st.ComputeFormulaeTime.Stop()
		return Outcome{Checker: job.Checker, Status: stats.StatusErr, Err: err}, errors.Wrap(err, "verify: building SNF/DNF")
	}

	// Decompose the candidate bound into acc *before* bmcgen.New snapshots
	// acc's Monus/RMonus pairs (bmcgen.go's monusSet/rmonusSet run once at
	// construction time and are never re-queried): any subtraction in `pre`
	// must already be lowered and recorded here, or its defining axiom is
	// never asserted by either driver at any depth (spec.md #3 invariant 4
	// presupposes the axiom is asserted at least once before it is relied
	// on to be asserted at most once per depth).
	totalIDNF, err := snf.ExpectationDNF(ctx, res.Vars, pre, acc, sv)
	if err != nil {
		return Outcome{Checker: job.Checker, Status: stats.StatusErr, Err: err}, errors.Wrap(err, "verify: decomposing candidate bound")
	}

	mode := bmcgen.ModeWp
	if job.Ert {
		mode = bmcgen.ModeErt
	}
	bmc := bmcgen.New(res, acc, mode)
	st.ComputeFormulaeTime.Stop()

	maxIterations := job.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	unrollings := job.UnrollingsBetweenSatChecks
	if unrollings <= 0 {
		unrollings = 1
	}

	switch job.Checker {
	case CheckerBMC:
		if job.AssertRefute != nil {
			maxIterations = *job.AssertRefute
		}
		finiteIDNF := dropInfiniteSummands(totalIDNF)
		d := driver.NewBMCDriver(res, bmc, finiteIDNF, sv)
		d.Setup()
		out, err := runDriver(ctx, st, job.Checker, func() (driver.Outcome, error) {
			return d.Run(ctx, maxIterations, unrollings)
		}, d.Depth)
		if err == nil && job.AssertRefute != nil && out.Status != stats.StatusRefuted {
			return out, errors.Errorf("verify: --assert-refute %d: bound not refuted (status %s)", *job.AssertRefute, out.Status)
		}
		return out, err
	case CheckerKInduction:
		if job.AssertInductive != nil {
			maxIterations = *job.AssertInductive
		}
		kind := kindgen.New(res, bmc, totalIDNF)
		d := driver.NewKIndDriver(res, kind, sv)
		d.Setup()
		out, err := runDriver(ctx, st, job.Checker, func() (driver.Outcome, error) {
			return d.Run(ctx, maxIterations)
		}, d.Depth)
		if err == nil && job.AssertInductive != nil && (out.Status != stats.StatusInductive || out.Depth > *job.AssertInductive) {
			return out, errors.Errorf("verify: --assert-inductive %d: bound not shown inductive (status %s, k=%d)", *job.AssertInductive, out.Status, out.Depth)
		}
		return out, err
	default:
		return Outcome{Checker: job.Checker, Status: stats.StatusErr}, errors.New("verify: runChecker called with CheckerBoth")
	}
}

func runDriver(ctx context.Context, st *stats.Stats, checker Checker, run func() (driver.Outcome, error), depth func() int) (Outcome, error) {
	st.SatCheckTime.Start()
	out, err := run()
	st.SatCheckTime.Stop()
	k := depth()
	st.K = &k

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Outcome{Checker: checker, Status: stats.StatusSigterm, Depth: k}, err
		}
		return Outcome{Checker: checker, Status: stats.StatusErr, Depth: k, Err: err}, err
	}

	var status stats.Status
	switch out {
	case driver.OutcomeRefuted:
		status = stats.StatusRefuted
	case driver.OutcomeInductive:
		status = stats.StatusInductive
	case driver.OutcomeCancelled:
		status = stats.StatusSigterm
	default:
		status = stats.StatusUndecided
	}
	return Outcome{Checker: checker, Status: status, Depth: k}, nil
}

// dropInfiniteSummands filters the candidate bound's DNF down to the
// finite summands, for use in the BMC refutation query (spec.md #4.3:
// "restricted to finite summands — ∞-summands are discarded since nothing
// exceeds ∞").
func dropInfiniteSummands(entries []snf.LoopTerminatedEntry) []snf.LoopTerminatedEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if !e.Arith.IsInfinity() {
			out = append(out, e)
		}
	}
	return out
}

func classifyError(err error) stats.Status {
	switch {
	case errors.Is(err, context.Canceled):
		return stats.StatusSigterm
	case errors.Is(err, context.DeadlineExceeded):
		return stats.StatusSigterm
	default:
		return stats.StatusErr
	}
}

func jobArgs(job Job) map[string]interface{} {
	return map[string]interface{}{
		"name":             job.Name,
		"checker":          job.Checker.String(),
		"program":          job.ProgramPath,
		"post":             job.Post,
		"pre":              job.Pre,
		"assert_inductive": job.AssertInductive,
		"assert_refute":    job.AssertRefute,
		"ert":              job.Ert,
	}
}

// appendStem inserts "-"+suffix before a path's first extension dot,
// matching `cmd.py`'s `_append_stem` (used to derive per-checker
// statistics paths under --checker both).
func appendStem(path, suffix string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i] + "-" + suffix + path[i:]
		}
	}
	return fmt.Sprintf("%s-%s", path, suffix)
}
