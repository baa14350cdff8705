package confirm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAcknowledgementRequired is matched by AcknowledgementError
var ErrAcknowledgementRequired = errors.New("acknowledgement required")

// AcknowledgementError lists the acknowledgements that were not given
type AcknowledgementError struct {
	Missing []string
}

func (e *AcknowledgementError) Error() string {
	return fmt.Sprintf("acknowledgement required: %s", strings.Join(e.Missing, ", "))
}

func (e *AcknowledgementError) Is(target error) bool {
	return target == ErrAcknowledgementRequired
}

// Acknowledgements must all be set before a new recovery phrase is trusted.
// They are independent of the word challenge.
type Acknowledgements struct {
	CannotRecover bool `json:"cannotRecover"` // "I understand this cannot be recovered"
	NeverShare    bool `json:"neverShare"`    // "I will never share this"
	SavedSecurely bool `json:"savedSecurely"` // "I have saved it securely"
}

// Check returns an *AcknowledgementError when any flag is unset
func (a Acknowledgements) Check() error {
	var missing []string
	if !a.CannotRecover {
		missing = append(missing, "cannotRecover")
	}
	if !a.NeverShare {
		missing = append(missing, "neverShare")
	}
	if !a.SavedSecurely {
		missing = append(missing, "savedSecurely")
	}
	if len(missing) > 0 {
		return &AcknowledgementError{Missing: missing}
	}
	return nil
}

// ImportAcknowledgements gate the custodial migration after the legacy key was shown
type ImportAcknowledgements struct {
	SavedSecurely    bool `json:"savedSecurely"`
	ImportedToWallet bool `json:"importedToWallet"`
}

// Check returns an *AcknowledgementError when any flag is unset
func (a ImportAcknowledgements) Check() error {
	var missing []string
	if !a.SavedSecurely {
		missing = append(missing, "savedSecurely")
	}
	if !a.ImportedToWallet {
		missing = append(missing, "importedToWallet")
	}
	if len(missing) > 0 {
		return &AcknowledgementError{Missing: missing}
	}
	return nil
}

// Pass runs the whole gate: acknowledgements first, then the word challenge
func Pass(ack Acknowledgements, ch Challenge, words []string, answers map[int]string) error {
	if err := ack.Check(); err != nil {
		return err
	}
	if !ch.Verify(words, answers) {
		return ErrConfirmationMismatch
	}
	return nil
}
