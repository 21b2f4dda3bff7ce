// Package privacy redacts hostnames before they reach a written report, so
// a leaked quality_report.json does not hand out a list of live proxy
// endpoints verbatim.
package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// hostHashSaltSize is 256 bits: large enough that no rainbow table can
// precompute hashes for it ahead of time.
const hostHashSaltSize = 32

var (
	hostHashSalt     []byte
	hostHashSaltOnce sync.Once
)

func initHostHashSalt() {
	hostHashSaltOnce.Do(func() {
		salt := make([]byte, hostHashSaltSize)

		if _, err := rand.Read(salt); err != nil {
			panic("crypto/rand.Read failed for host hash salt: " + err.Error())
		}

		hostHashSalt = salt
	})
}

// RedactHost returns a truncated, per-process-salted hash of a host, stable
// within one run (so the same node hashes the same way across the report's
// sections) but not reversible or comparable across runs.
func RedactHost(host string) string {
	initHostHashSalt()

	h := sha256.New()
	h.Write(hostHashSalt)
	h.Write([]byte(host))
	sum := h.Sum(nil)

	return hex.EncodeToString(sum[:6]) // 12 hex chars, enough to disambiguate within a report
}
