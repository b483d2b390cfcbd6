package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	Digits        = 6      // code length
	Period        = 30     // seconds per time-step
	Algorithm     = "SHA1" // HMAC algorithm
	DefaultWindow = 1      // accepted drift in steps on either side of now
)

var pow10 = [...]int{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000}

// GenerateHOTP implements the RFC 4226 HMAC-based one-time password for a counter value.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// dynamic truncation
	offset := sum[len(sum)-1] & 0x0f
	code := int(binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff)

	if digits <= 0 || digits >= len(pow10) {
		digits = Digits
	}
	return code % pow10[digits]
}

// TimeStep returns floor(unix(t) / Period).
func TimeStep(t time.Time) int64 {
	sec := t.Unix()
	step := sec / Period
	if sec%Period < 0 {
		step--
	}
	return step
}

// CodeAt returns the zero-padded code for the time-step containing t.
func CodeAt(secret Secret, t time.Time) string {
	return CodeForStep(secret, TimeStep(t))
}

// CodeForStep returns the zero-padded code for an explicit time-step.
func CodeForStep(secret Secret, step int64) string {
	return formatCode(GenerateHOTP(secret.key, step, Digits))
}

// NormalizeCode strips whitespace and checks that exactly 6 ASCII digits remain.
func NormalizeCode(code string) (string, error) {
	code = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)

	if len(code) != Digits {
		return "", ErrInvalidCodeFormat
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", ErrInvalidCodeFormat
		}
	}
	return code, nil
}

// Verify reports whether code is valid for secret at time at, accepting steps within window.
// Malformed codes return ErrInvalidCodeFormat without computing any HMAC.
func Verify(secret Secret, code string, at time.Time, window int) (bool, error) {
	_, ok, err := Match(secret, code, at, window)
	return ok, err
}

// Match is Verify that also returns the matched time-step.
// Every candidate step is computed and compared regardless of earlier matches.
func Match(secret Secret, code string, at time.Time, window int) (int64, bool, error) {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return 0, false, err
	}
	if secret.IsZero() {
		return 0, false, ErrMissingSecret
	}
	if window < 0 {
		window = 0
	}

	submitted := []byte(normalized)
	current := TimeStep(at)

	var (
		found   int
		matched int64
	)
	for offset := -window; offset <= window; offset++ {
		step := current + int64(offset)
		expected := []byte(CodeForStep(secret, step))

		eq := subtle.ConstantTimeCompare(expected, submitted)
		take := eq &^ found
		mask := -int64(take)
		matched = (step & mask) | (matched &^ mask)
		found |= eq
	}

	return matched, found == 1, nil
}

func formatCode(code int) string {
	s := strconv.Itoa(code)
	if len(s) >= Digits {
		return s
	}
	return strings.Repeat("0", Digits-len(s)) + s
}
