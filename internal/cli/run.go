package cli

import (
	"context"
	"io"
	"os"
)

// CLIResult is the outcome of one invocation.
type CLIResult struct {
	ExitCode int
}

// Run is a high-level CLI entrypoint suitable for black-box tests.
// It accepts the argument slice (excluding argv[0]) and returns the semantic
// exit code plus any error.
func Run(ctx context.Context, args []string) (CLIResult, error) {
	return RunWithIO(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

// RunWithIO is Run with explicit standard streams.
func RunWithIO(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (CLIResult, error) {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil && !classified(err) {
		// Everything our commands return is classified; the rest comes from
		// cobra's own argument and flag parsing.
		err = invalidInvocationf("%v", err)
	}
	return CLIResult{ExitCode: ExitCode(err)}, err
}
