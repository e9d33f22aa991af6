package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// Fingerprint identifies a match together with its opportunity set.
// Map order does not matter; a changed quoted price gives a new fingerprint.
func Fingerprint(matchID string, opps models.Opportunities) string {
	var b strings.Builder
	b.WriteString(matchID)
	for _, k := range opps.Keys() {
		o := opps[k]
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(o.Current, 'f', 4, 64))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
