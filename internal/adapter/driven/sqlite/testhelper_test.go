package sqlite

import (
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB opens a named shared in-memory database with migrations applied.
// cache=shared makes the writer and reader pools see the same data; the name
// comes from t.Name() so parallel tests stay isolated. In-memory databases
// have no WAL, so that pragma is omitted.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so subtests with slashes or spaces stay a
	// valid URI filename component.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		url.PathEscape(t.Name()),
	)

	writer, err := openPool(dsn, 1)
	if err != nil {
		t.Fatalf("open test writer: %v", err)
	}
	reader, err := openPool(dsn, readerPoolSize)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("open test reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
