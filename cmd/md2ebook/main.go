package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args[1:], DefaultEnv()))
}

// runMain executes the command line and returns the process exit code.
func runMain(args []string, env *Environment) int {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	root := newRootCmd(env)
	root.SetArgs(normalizeLegacyArgs(args))
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	// Batch failures were already reported file by file.
	var reported *reportedError
	if errors.As(err, &reported) {
		return reported.code
	}

	fmt.Fprintf(env.Stderr, "Error: %v\n", err)
	return exitCodeFor(err)
}

// setMaxProcs aligns GOMAXPROCS with the container CPU quota, logging
// the outcome at debug level.
func setMaxProcs(env *Environment) {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(env.Logger.Sugar().Debugf))
}
