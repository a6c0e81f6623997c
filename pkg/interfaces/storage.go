package interfaces

import "github.com/goliatone/go-press/pkg/storage"

// StorageProvider is the interface consumers wire when they supply their own
// storage. Implementations should prefer satisfying pkg/storage.Provider
// directly.
type StorageProvider = storage.Provider

// Rows aliases storage.Rows.
type Rows = storage.Rows

// Result aliases storage.Result.
type Result = storage.Result

// Transaction aliases storage.Transaction.
type Transaction = storage.Transaction
