// Package kvstore builds immutable key/value lookup databases.
package kvstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

var ErrBadKey = errors.New("key must be non-empty and free of whitespace")

// Entry is one key/value record.
type Entry struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Store builds the database called name from entries, replacing any previous
// database of that name.
type Store interface {
	Build(ctx context.Context, name string, entries []Entry) error
}

func validate(entries []Entry) error {
	for _, e := range entries {
		if e.Key == "" || strings.ContainsAny(e.Key, " \t\r\n") {
			return fmt.Errorf("%w: %q", ErrBadKey, e.Key)
		}
		if strings.ContainsAny(e.Value, "\r\n") {
			return fmt.Errorf("value for %q contains a line break", e.Key)
		}
	}
	return nil
}

// DefaultCommand is the tinycdb builder; "-c -m" creates a database from
// "key value" lines.
var DefaultCommand = []string{"cdb", "-cm"}

// Command builds constant databases by piping entries into an external
// builder. The database path is appended to the command.
type Command struct {
	Dir     string
	Command []string
}

func NewCommand(dir string, command []string) *Command {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Command{Dir: dir, Command: command}
}

func (c *Command) Path(name string) string {
	return filepath.Join(c.Dir, name)
}

func (c *Command) Build(ctx context.Context, name string, entries []Entry) error {
	if err := validate(entries); err != nil {
		return err
	}

	args := append(append([]string{}, c.Command[1:]...), c.Path(name))
	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Command[0], err)
	}

	w := bufio.NewWriter(stdin)
	var writeErr error
	for _, e := range entries {
		if _, writeErr = fmt.Fprintf(w, "%s %s\n", e.Key, e.Value); writeErr != nil {
			break
		}
	}
	if writeErr == nil {
		writeErr = w.Flush()
	}
	closeErr := stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", c.Command[0], name, err, strings.TrimSpace(stderr.String()))
	}
	if writeErr != nil {
		return fmt.Errorf("write entries to %s: %w", c.Command[0], writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s stdin: %w", c.Command[0], closeErr)
	}
	return nil
}
