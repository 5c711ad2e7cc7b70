// Package indexer talks to the external myindex program.
package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// DefaultProgram is looked up in PATH when no indexer path is configured.
const DefaultProgram = "myindex"

var ErrNoProgram = errors.New("indexer program is empty")

// Options are the myindex flags forwarded verbatim on every invocation.
type Options struct {
	Force   bool
	Verbose bool
	DBName  string
}

// Flags renders the options in the order myindex documents them.
func (o Options) Flags() []string {
	var flags []string
	if o.Force {
		flags = append(flags, "-F")
	}
	if o.Verbose {
		flags = append(flags, "-v")
	}
	if o.DBName != "" {
		flags = append(flags, "--dbname", o.DBName)
	}
	return flags
}

// Segment is a run of mailboxes sharing one language code.
type Segment struct {
	Language string
	Paths    []string
}

// Batch is one invocation of the indexer.
type Batch struct {
	Options  Options
	Segments []Segment
}

// Args renders the argument list, program name excluded.
func (b Batch) Args() []string {
	args := b.Options.Flags()
	for _, seg := range b.Segments {
		args = append(args, "-l", seg.Language)
		args = append(args, seg.Paths...)
	}
	return args
}

// Mailboxes counts the mailbox paths in the batch.
func (b Batch) Mailboxes() int {
	n := 0
	for _, seg := range b.Segments {
		n += len(seg.Paths)
	}
	return n
}

// Indexer indexes one batch of mailboxes and reports failure.
type Indexer interface {
	Index(ctx context.Context, batch Batch) error
}

// Command runs the indexer as a child process and waits for it.
type Command struct {
	Program string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

func NewCommand(program string, logger *slog.Logger) (*Command, error) {
	if strings.TrimSpace(program) == "" {
		return nil, ErrNoProgram
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Command{
		Program: program,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
	}, nil
}

func (c *Command) Index(ctx context.Context, batch Batch) error {
	args := batch.Args()
	c.Logger.Info("calling indexer", "program", c.Program, "args", len(args), "mailboxes", batch.Mailboxes())
	c.Logger.Debug("indexer command line", "cmd", c.Program+" "+strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Program, args...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = io.MultiWriter(c.Stderr, &stderr)

	if err := cmd.Run(); err != nil {
		if tail := lastLine(stderr.String()); tail != "" {
			return fmt.Errorf("%s: %w: %s", c.Program, err, tail)
		}
		return fmt.Errorf("%s: %w", c.Program, err)
	}
	return nil
}

// DryRun logs the invocations it would make.
type DryRun struct {
	Program string
	Logger  *slog.Logger
}

func (d DryRun) Index(_ context.Context, batch Batch) error {
	if d.Logger != nil {
		d.Logger.Info("dry run: would call indexer", "cmd", d.Program+" "+strings.Join(batch.Args(), " "), "mailboxes", batch.Mailboxes())
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
