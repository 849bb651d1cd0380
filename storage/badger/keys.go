package badger

import (
	"fmt"

	"github.com/poiesic/crawlvec/core"
)

// Key prefixes for different data types
const (
	pagePrefix    = "pagrec"
	contentPrefix = "conrec"
	ledgerPrefix  = "ledrec"
)

// makePageKey generates a key for a page by ID.
func makePageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s", pagePrefix, id))
}

// makeContentKey generates a key for a content record by ID.
func makeContentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s", contentPrefix, id))
}

// makeLedgerKey generates a key for a ledger entry by ID.
func makeLedgerKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s", ledgerPrefix, id))
}
