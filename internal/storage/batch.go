package storage

// BulkInsertOptions describes a chunk size for bulk inserts. No repository
// reads it: the row and TM-entry bulk paths in sqlengine issue
// one INSERT per row or entry (no copy-in protocol, no multi-row INSERT)
// and then recompute the parent's row_count or entry_count.
type BulkInsertOptions struct {
	// ChunkSize bounds how many rows/entries go into a single multi-row
	// INSERT or copy-in batch. Zero means "adapter picks a default".
	ChunkSize int
}

// DefaultBulkChunkSize is used when BulkInsertOptions.ChunkSize is zero.
const DefaultBulkChunkSize = 500
