// Package confirm implements the backup confirmation gate: the user proves
// they recorded a recovery phrase by re-entering randomly chosen words and
// explicitly acknowledging the custody rules.
package confirm

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lukechampine.com/frand"
)

// DefaultSize is the number of words asked back
const DefaultSize = 3

var (
	// ErrConfirmationMismatch means at least one challenged word was wrong
	ErrConfirmationMismatch = errors.New("recovery phrase confirmation does not match")
	// ErrInvalidChallenge is returned when a challenge cannot be built or applied
	ErrInvalidChallenge = errors.New("invalid confirmation challenge")
)

// Source picks an integer in [0, n)
type Source interface {
	Intn(n int) int
}

type cryptoSource struct{}

func (cryptoSource) Intn(n int) int { return frand.Intn(n) }

// CryptoSource returns the default CSPRNG-backed source
func CryptoSource() Source {
	return cryptoSource{}
}

// Challenge lists the word indices (0-based, ascending) the user must re-enter.
// It never stores the expected words; they are read from the vault when verifying.
type Challenge struct {
	Indices []int `json:"indices"`
}

// NewChallenge samples size distinct indices uniformly from [0, wordCount).
// Partial Fisher-Yates, so every subset is equally likely and early positions
// get no preference.
func NewChallenge(wordCount, size int, src Source) (Challenge, error) {
	if size <= 0 || wordCount <= 0 || size > wordCount {
		return Challenge{}, fmt.Errorf("%w: %d of %d words", ErrInvalidChallenge, size, wordCount)
	}
	if src == nil {
		src = CryptoSource()
	}

	pool := make([]int, wordCount)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < size; i++ {
		j := i + src.Intn(wordCount-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	indices := append([]int(nil), pool[:size]...)
	sort.Ints(indices)
	return Challenge{Indices: indices}, nil
}

// Positions returns the 1-based word numbers shown to the user
func (c Challenge) Positions() []int {
	out := make([]int, len(c.Indices))
	for i, idx := range c.Indices {
		out[i] = idx + 1
	}
	return out
}

// Verify checks every challenged index against words.
// Answers are matched exactly (case-sensitive) after trimming surrounding
// whitespace. There is no partial credit; all indices are compared even after
// a mismatch.
func (c Challenge) Verify(words []string, answers map[int]string) bool {
	if len(c.Indices) == 0 {
		return false
	}

	ok := 1
	for _, idx := range c.Indices {
		if idx < 0 || idx >= len(words) {
			return false
		}
		answer, present := answers[idx]
		if !present {
			ok = 0
			continue
		}
		ok &= subtle.ConstantTimeCompare([]byte(strings.TrimSpace(answer)), []byte(words[idx]))
	}
	return ok == 1
}
