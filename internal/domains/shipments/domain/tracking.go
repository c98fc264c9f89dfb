package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TrackingNumberPattern is the wire format of a tracking number. Label
// printing and QR payloads encode exactly this string.
var TrackingNumberPattern = regexp.MustCompile(`^PKG-\d{8}-[A-Z0-9]{5}$`)

// GenerateTrackingNumber produces a candidate tracking number of the form
// PKG-YYYYMMDD-XXXXX. The date component uses UTC. Uniqueness is the
// caller's responsibility: generate, check, retry while taken.
func GenerateTrackingNumber(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = trackingAlphabet[randomInt(len(trackingAlphabet))]
	}
	return fmt.Sprintf("PKG-%s-%s", now.UTC().Format("20060102"), suffix)
}

// GenerateDeliveryCode produces a uniform random 6-digit decimal code,
// zero-padded and handled as a string end to end.
func GenerateDeliveryCode() string {
	return fmt.Sprintf("%06d", randomInt(1000000))
}

// ValidTrackingNumber reports whether s matches the tracking number format.
func ValidTrackingNumber(s string) bool {
	return TrackingNumberPattern.MatchString(s)
}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(fmt.Sprintf("random source unavailable: %v", err))
	}
	return int(v.Int64())
}
