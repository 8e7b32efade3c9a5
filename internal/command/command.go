// Copyright 2025 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/shlex"
)

// Command is a program followed by its arguments.
type Command []string

// Parse splits a command line into a Command using shell-like quoting rules.
func Parse(line string) (Command, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return Command(args), nil
}

// MustParse is like Parse but panics on error. It is meant for fixed command
// lines known at compile time.
func MustParse(line string) Command {
	cmd, err := Parse(line)
	if err != nil {
		panic(err)
	}
	return cmd
}

func (c Command) String() string {
	return strings.Join(c, " ")
}

// Error is returned when a command could not be started or exited non-zero.
type Error struct {
	Command Command
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command.String(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes external commands one at a time.
type Runner struct {
	// Timeout bounds every single command. Zero means no timeout.
	Timeout time.Duration

	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a runner attached to the process' standard streams
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{
		Timeout: timeout,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes commands in order and stops at the first failure. Commands that
// already ran are not undone.
func (r *Runner) Run(ctx context.Context, cmds ...Command) error {
	for _, c := range cmds {
		if err := r.run(ctx, c, r.Stdout); err != nil {
			return err
		}
	}
	return nil
}

// Output executes a single command and returns what it wrote to stdout.
func (r *Runner) Output(ctx context.Context, c Command) ([]byte, error) {
	var stdout bytes.Buffer
	if err := r.run(ctx, c, &stdout); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func (r *Runner) run(ctx context.Context, c Command, stdout io.Writer) error {
	if len(c) == 0 {
		return &Error{Command: c, Err: fmt.Errorf("empty command")}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	log.Debug("Running command", "command", c.String())

	// #nosec G204 - commands are built by this tool, not read from user input
	cmd := exec.CommandContext(ctx, c[0], c[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return &Error{Command: c, Err: err}
	}

	return nil
}
