package library

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID prefixes for generated book and member identifiers.
const (
	BookIDPrefix   = "B"
	MemberIDPrefix = "M"
)

// nextSequentialID returns prefix followed by one more than the highest
// numeric suffix among ids carrying that prefix, zero padded to three digits.
// IDs with other prefixes or non-numeric suffixes are ignored.
func nextSequentialID(prefix string, ids []string) string {
	highest := 0
	for _, id := range ids {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			continue
		}
		highest = max(highest, n)
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}

// newTransactionID returns a time-ordered identifier for a transaction.
func newTransactionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
