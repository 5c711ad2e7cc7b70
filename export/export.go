// Package export writes the language table into the two lookup databases
// other archive tools read: name to code, and code to name.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dhcgn/mbox-index/kvstore"
	"github.com/dhcgn/mbox-index/langcode"
)

const (
	// KeysRecord holds the tab-separated list of every key in the database,
	// so readers can enumerate keys without scanning.
	KeysRecord = "*keys*"

	NameToCode = "langtocode"
	CodeToName = "codetolang"
)

type Database struct {
	Name    string
	Entries []kvstore.Entry
}

// Databases derives both databases from the table. Entries are ordered by
// language name in both; each ends with its KeysRecord.
func Databases(table *langcode.Table) (byName, byCode Database) {
	names := table.Names()
	codes := table.Codes()

	byName = Database{Name: NameToCode, Entries: make([]kvstore.Entry, 0, len(names)+1)}
	byCode = Database{Name: CodeToName, Entries: make([]kvstore.Entry, 0, len(names)+1)}
	for i, name := range names {
		byName.Entries = append(byName.Entries, kvstore.Entry{Key: name, Value: codes[i]})
		byCode.Entries = append(byCode.Entries, kvstore.Entry{Key: codes[i], Value: name})
	}
	byName.Entries = append(byName.Entries, kvstore.Entry{Key: KeysRecord, Value: strings.Join(names, "\t")})
	byCode.Entries = append(byCode.Entries, kvstore.Entry{Key: KeysRecord, Value: strings.Join(codes, "\t")})
	return byName, byCode
}

// Export builds both databases with store, name-keyed first.
func Export(ctx context.Context, table *langcode.Table, store kvstore.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	byName, byCode := Databases(table)
	for _, db := range []Database{byName, byCode} {
		if err := store.Build(ctx, db.Name, db.Entries); err != nil {
			return fmt.Errorf("build %s: %w", db.Name, err)
		}
		logger.Info("language database built", "name", db.Name, "entries", len(db.Entries), "tableVersion", table.Version)
	}
	return nil
}
