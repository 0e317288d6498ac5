package bookings

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewBookingReference generates a human-readable booking reference of
// the form BK-YYYYMMDD-XXXXXXXX, where the suffix is 8 uppercase hex
// characters from a cryptographic source.
func NewBookingReference(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating booking reference: %w", err)
	}

	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("20060102"), suffix), nil
}
