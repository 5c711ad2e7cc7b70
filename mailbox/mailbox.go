// Package mailbox finds list archive mailboxes on disk.
//
// The archive root holds one directory per list. Older archives keep one
// mailbox per year directly in that directory (list/list-YYYY); newer ones
// keep monthly mailboxes under a year directory (list/YYYY/list-YYYYMM).
package mailbox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	mboxlib "github.com/emersion/go-mbox"
)

var (
	ErrNotMailbox = errors.New("not a mailbox path")

	reMailbox = regexp.MustCompile(`^(.+)-([0-9]{4})([0-9]{2})?$`)
)

// Mailbox is a single archive file of one list.
type Mailbox struct {
	Path    string
	List    string
	Year    int
	Month   int
	ModTime time.Time
}

// Period renders the archive period, "2007" or "2007-09".
func (m Mailbox) Period() string {
	if m.Month == 0 {
		return fmt.Sprintf("%04d", m.Year)
	}
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Parse derives the owning list and the period from the file name. Any
// two-digit bucket is accepted; bucket 00 means the mailbox has no month.
func Parse(path string) (Mailbox, error) {
	m := reMailbox.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Mailbox{}, fmt.Errorf("%w: %s", ErrNotMailbox, path)
	}

	year, _ := strconv.Atoi(m[2])
	month := 0
	if m[3] != "" {
		month, _ = strconv.Atoi(m[3])
	}

	return Mailbox{Path: path, List: m[1], Year: year, Month: month}, nil
}

// Inspect parses path and records its modification time.
func Inspect(path string) (Mailbox, error) {
	mb, err := Parse(path)
	if err != nil {
		return Mailbox{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Mailbox{}, fmt.Errorf("stat mailbox: %w", err)
	}
	mb.ModTime = info.ModTime()
	return mb, nil
}

// Discover returns the sorted mailbox paths of list under root.
func Discover(root, list string) ([]string, error) {
	yearly, err := filepath.Glob(filepath.Join(root, list, list+"-[0-9][0-9][0-9][0-9]"))
	if err != nil {
		return nil, fmt.Errorf("glob yearly mailboxes: %w", err)
	}
	monthly, err := filepath.Glob(filepath.Join(root, list, "[0-9][0-9][0-9][0-9]", list+"-[0-9][0-9][0-9][0-9][0-9][0-9]"))
	if err != nil {
		return nil, fmt.Errorf("glob monthly mailboxes: %w", err)
	}

	paths := append(yearly, monthly...)
	sort.Strings(paths)
	return paths, nil
}

// Lists returns the sorted names of the list directories under root.
func Lists(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read archive root: %w", err)
	}

	var lists []string
	for _, entry := range entries {
		if entry.IsDir() {
			lists = append(lists, entry.Name())
		}
	}
	sort.Strings(lists)
	return lists, nil
}

// ModifiedSince reports whether the mailbox changed at or after since. Every
// mailbox counts as modified when since is zero.
func (m Mailbox) ModifiedSince(since time.Time) bool {
	return since.IsZero() || !m.ModTime.Before(since)
}

// ModifiedSince keeps the mailboxes changed at or after since.
func ModifiedSince(mailboxes []Mailbox, since time.Time) []Mailbox {
	out := mailboxes[:0:0]
	for _, mb := range mailboxes {
		if mb.ModifiedSince(since) {
			out = append(out, mb)
		}
	}
	return out
}

// CountMessages returns the number of messages stored in the mailbox file.
func CountMessages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open mbox: %w", err)
	}
	defer f.Close()

	reader := mboxlib.NewReader(f)
	count := 0
	for {
		msg, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("read message %d: %w", count+1, err)
		}
		if _, err := io.Copy(io.Discard, msg); err != nil {
			return count, fmt.Errorf("read message %d: %w", count+1, err)
		}
		count++
	}
}
