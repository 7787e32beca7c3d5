// Command kipro2 checks a quantitative upper bound on the weakest
// preexpectation (or expected runtime) of a probabilistic while-program
// against a candidate expression, via bounded model checking and/or
// k-induction.
//
// Grounded on `original_source/kipro2/cmd.py`'s click command, translated
// to cobra per the teacher corpus's CLI idiom.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/moves-rwth/kipro2/pkg/solver"
	"github.com/moves-rwth/kipro2/pkg/verify"
)

type cliArgs struct {
	post            string
	pre             string
	statsPath       string
	assertInductive int
	assertRefute    int
	checker         string
	name            string
	ert             bool
	memoryLimitMB   int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var a cliArgs

	cmd := &cobra.Command{
		Use:   "kipro2 PROGRAM",
		Short: "Verify or refute an upper bound on a probabilistic loop's wp/ert transformer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			return run(cmd, positional[0], &a)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&a.post, "post", "", "the post-expectation")
	flags.StringVar(&a.pre, "pre", "", "the upper bound to the pre-expectation")
	flags.StringVar(&a.statsPath, "stats-path", "", "a path where to write a statistics file into")
	flags.IntVar(&a.assertInductive, "assert-inductive", 0, "throw an error if inductiveness cannot be proven in N steps")
	flags.IntVar(&a.assertRefute, "assert-refute", 0, "throw an error if refutation cannot be done in N steps")
	flags.StringVar(&a.checker, "checker", "both", "which checker to use: bmc, kind, or both")
	flags.StringVar(&a.name, "name", "", "a name to attach to the statistics")
	flags.BoolVar(&a.ert, "ert", false, "check upper bounds on expected runtimes (ert) instead of expected outcomes (wp)")
	flags.IntVar(&a.memoryLimitMB, "memory-limit", 0, "maximum memory for each process in megabytes")

	return cmd
}

func run(cmd *cobra.Command, programPath string, a *cliArgs) error {
	programBytes, err := os.ReadFile(programPath)
	if err != nil {
		return errors.Wrap(err, "kipro2: reading program file")
	}
	programCode := string(programBytes)

	if argsStr, ok := parseArgsComment(programCode); ok {
		explicit := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { explicit[f.Name] = true })
		if err := applyDefaultsFromComment(cmd.Flags(), argsStr, explicit); err != nil {
			return errors.Wrap(err, "kipro2: parsing // ARGS: comment")
		}
		// The grammar's lexer only recognizes "#"-led line comments, not
		// "//"; strip the consumed ARGS line either way before handing the
		// program text to the parser.
		programCode = stripFirstLine(programCode)
	}

	switch a.checker {
	case "bmc", "kind", "both":
	default:
		return errors.Errorf("kipro2: --checker must be one of bmc, kind, both, got %q", a.checker)
	}
	if a.assertInductive != 0 && a.assertRefute != 0 {
		return errors.New("kipro2: --assert-inductive and --assert-refute are mutually exclusive")
	}

	if a.memoryLimitMB > 0 {
		setMaxMemory(a.memoryLimitMB)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return errors.Wrap(err, "kipro2: building logger")
	}
	defer logger.Sync()

	logger.Info("starting verification", zap.Bool("ert", a.ert), zap.String("checker", a.checker))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSigintHandler(cancel, logger)

	job := verify.Job{
		Name:        a.name,
		Checker:     parseChecker(a.checker),
		ProgramPath: programPath,
		ProgramCode: programCode,
		Post:        a.post,
		Pre:         a.pre,
		StatsPath:   a.statsPath,
		Ert:         a.ert,

		SolverConfig: solver.DefaultConfig,
	}
	if a.assertInductive != 0 {
		job.AssertInductive = &a.assertInductive
	}
	if a.assertRefute != 0 {
		job.AssertRefute = &a.assertRefute
	}

	outcome, err := verify.Run(ctx, logger, job)
	if err != nil {
		logger.Error("verification ended with an error", zap.Error(err), zap.String("status", string(outcome.Status)))
		return err
	}
	logger.Info("verification finished", zap.String("status", string(outcome.Status)), zap.Int("depth", outcome.Depth))
	fmt.Printf("%s\n", outcome.Status)
	return nil
}

func parseChecker(s string) verify.Checker {
	switch s {
	case "bmc":
		return verify.CheckerBMC
	case "kind":
		return verify.CheckerKInduction
	default:
		return verify.CheckerBoth
	}
}

// setupSigintHandler installs a SIGINT/SIGTERM handler that cancels ctx
// so in-flight drivers observe cancellation and report status "sigterm"
// (after `original_source/kipro2/utils/utils.py`'s `setup_sigint_handler`).
// The signal is not re-raised; the run ends through verify.Run's normal
// return path.
func setupSigintHandler(cancel context.CancelFunc, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn("received signal, cancelling", zap.String("signal", sig.String()))
		cancel()
	}()
}

// setMaxMemory is a best-effort translation of `set_max_memory`'s
// RLIMIT_AS cap; Go's runtime does not expose a portable rlimit setter,
// so this instead asks the garbage collector to target the requested
// ceiling via debug.SetMemoryLimit, the closest the standard library
// offers to bounding process memory from within the process itself.
func setMaxMemory(memoryMB int) {
	if runtime.GOOS == "windows" {
		return
	}
	debug.SetMemoryLimit(int64(memoryMB) * 1024 * 1024)
}
