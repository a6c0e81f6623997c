package testsupport

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

var dbSeq atomic.Int64

// NewSQLiteMemoryDB opens a private in-memory SQLite database.
//
// Each call gets its own shared-cache namespace so parallel tests cannot
// observe one another's tables.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	name := fmt.Sprintf("file:presstest%d?mode=memory&cache=shared", dbSeq.Add(1))
	return sql.Open("sqlite3", name)
}
