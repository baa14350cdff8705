package confirm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"
)

var phrase = strings.Fields("legal winner thank year wave sausage worth useful legal winner thank yellow")

type seqSource struct {
	vals []int
	pos  int
}

func (s *seqSource) Intn(n int) int {
	v := s.vals[s.pos] % n
	s.pos++
	return v
}

func answersFor(ch Challenge, words []string) map[int]string {
	out := make(map[int]string, len(ch.Indices))
	for _, idx := range ch.Indices {
		out[idx] = words[idx]
	}
	return out
}

func TestNewChallenge_DistinctSortedInRange(t *testing.T) {
	src := frand.NewCustom(make([]byte, 32), 1024, 12)
	for i := 0; i < 500; i++ {
		ch, err := NewChallenge(len(phrase), DefaultSize, src)
		require.NoError(t, err)
		require.Len(t, ch.Indices, DefaultSize)

		seen := map[int]bool{}
		for j, idx := range ch.Indices {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, len(phrase))
			assert.False(t, seen[idx], "duplicate index %d", idx)
			seen[idx] = true
			if j > 0 {
				assert.Less(t, ch.Indices[j-1], idx)
			}
		}
	}
}

func TestNewChallenge_CoversWholePhrase(t *testing.T) {
	src := frand.NewCustom([]byte("confirmation-gate-uniformity-32b"), 1024, 12)
	const rounds = 12000
	counts := make([]int, len(phrase))
	for i := 0; i < rounds; i++ {
		ch, err := NewChallenge(len(phrase), DefaultSize, src)
		require.NoError(t, err)
		for _, idx := range ch.Indices {
			counts[idx]++
		}
	}

	expected := float64(rounds*DefaultSize) / float64(len(phrase))
	for idx, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.15, "index %d sampled %d times", idx, c)
	}
}

func TestNewChallenge_Sequence(t *testing.T) {
	ch, err := NewChallenge(12, 3, &seqSource{vals: []int{2, 6, 8}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 7, 10}, ch.Indices)
	assert.Equal(t, []int{3, 8, 11}, ch.Positions())
}

func TestNewChallenge_Invalid(t *testing.T) {
	for _, tc := range [][2]int{{12, 0}, {12, 13}, {0, 3}, {12, -1}} {
		_, err := NewChallenge(tc[0], tc[1], nil)
		assert.ErrorIs(t, err, ErrInvalidChallenge)
	}
}

func TestVerify_AllCorrect(t *testing.T) {
	ch := Challenge{Indices: []int{2, 7, 10}}
	assert.True(t, ch.Verify(phrase, answersFor(ch, phrase)))

	answers := answersFor(ch, phrase)
	answers[7] = "  " + answers[7] + "\n"
	assert.True(t, ch.Verify(phrase, answers), "surrounding whitespace is ignored")
}

func TestVerify_NoPartialCredit(t *testing.T) {
	ch := Challenge{Indices: []int{2, 7, 10}}
	answers := answersFor(ch, phrase)
	answers[10] = "thnak" // typo on the last one
	assert.False(t, ch.Verify(phrase, answers))
}

func TestVerify_AnySingleCharacterChangeFails(t *testing.T) {
	ch := Challenge{Indices: []int{0, 5, 11}}
	for _, idx := range ch.Indices {
		word := phrase[idx]
		for pos := range word {
			b := []byte(word)
			if b[pos] == 'z' {
				b[pos] = 'a'
			} else {
				b[pos]++
			}
			answers := answersFor(ch, phrase)
			answers[idx] = string(b)
			assert.False(t, ch.Verify(phrase, answers), "altered %q at %d", word, pos)
		}
		upper := answersFor(ch, phrase)
		upper[idx] = strings.ToUpper(word[:1]) + word[1:]
		assert.False(t, ch.Verify(phrase, upper), "case sensitive")
	}
}

func TestVerify_MissingOrOutOfRange(t *testing.T) {
	ch := Challenge{Indices: []int{2, 7, 10}}
	answers := answersFor(ch, phrase)
	delete(answers, 7)
	assert.False(t, ch.Verify(phrase, answers))

	assert.False(t, Challenge{}.Verify(phrase, nil))
	assert.False(t, Challenge{Indices: []int{12}}.Verify(phrase, map[int]string{12: "x"}))
}

func TestPass(t *testing.T) {
	ch := Challenge{Indices: []int{1, 4, 9}}
	all := Acknowledgements{CannotRecover: true, NeverShare: true, SavedSecurely: true}

	require.NoError(t, Pass(all, ch, phrase, answersFor(ch, phrase)))

	err := Pass(Acknowledgements{CannotRecover: true}, ch, phrase, answersFor(ch, phrase))
	require.ErrorIs(t, err, ErrAcknowledgementRequired)
	var ackErr *AcknowledgementError
	require.ErrorAs(t, err, &ackErr)
	assert.Equal(t, []string{"neverShare", "savedSecurely"}, ackErr.Missing)

	wrong := answersFor(ch, phrase)
	wrong[4] = "wrong"
	assert.ErrorIs(t, Pass(all, ch, phrase, wrong), ErrConfirmationMismatch)
}

func TestImportAcknowledgements(t *testing.T) {
	assert.NoError(t, ImportAcknowledgements{SavedSecurely: true, ImportedToWallet: true}.Check())
	err := ImportAcknowledgements{SavedSecurely: true}.Check()
	assert.ErrorIs(t, err, ErrAcknowledgementRequired)
	assert.Contains(t, err.Error(), "importedToWallet")
}
