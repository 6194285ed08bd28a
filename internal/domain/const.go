package domain

const (
	// Ledger constants
	LAMPORTS_PER_SOL = 1_000_000_000

	// Event tag length in bytes at the head of every program data payload
	EVENT_TAG_LENGTH = 8

	// Prefix of the key_value_store entry holding the newest committed signature per program
	INDEXER_CURSOR_KEY_PREFIX = "indexer_cursor:"
)

// IndexerCursorKey returns the key_value_store key for a program's ingestion cursor
func IndexerCursorKey(programID string) string {
	return INDEXER_CURSOR_KEY_PREFIX + programID
}
