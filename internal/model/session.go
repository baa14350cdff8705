package model

import "github.com/AlexZinkM/self-custody/internal/confirm"

// ChallengeWord is one position the user must re-enter
type ChallengeWord struct {
	Index    int `json:"index"`    // 0-based
	Position int `json:"position"` // 1-based, as shown to the user
}

// CreateSessionResponse represents response for the create-wallet session endpoints
type CreateSessionResponse struct {
	SessionID string          `json:"sessionId"`
	State     string          `json:"state"`
	Words     []string        `json:"words,omitempty"`
	Challenge []ChallengeWord `json:"challenge,omitempty"`
	PublicKey string          `json:"publicKey,omitempty"`
}

// Answer is the user's entry for one challenged index
type Answer struct {
	Index int    `json:"index"`
	Word  string `json:"word"`
}

// ConfirmCreateRequest represents request for POST /wallet/create/{id}/confirm
type ConfirmCreateRequest struct {
	Acknowledgements confirm.Acknowledgements `json:"acknowledgements"`
	Answers          []Answer                 `json:"answers"`
}

// StartMigrationRequest represents request for POST /migration
type StartMigrationRequest struct {
	HasCustodialKey bool `json:"hasCustodialKey"`
}

// MigrationResponse represents the migration session state
type MigrationResponse struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
	PublicKey string `json:"publicKey,omitempty"`
	Support   string `json:"support,omitempty"` // set when state is unrecoverable
}

// RevealRequest carries the literal consent sentence
type RevealRequest struct {
	Confirmation string `json:"confirmation"`
}

// SecretResponse carries a revealed secret for display
type SecretResponse struct {
	Kind   string `json:"kind"`
	Secret string `json:"secret"`
}

// AttachRequest represents request for POST /migration/{id}/attach
type AttachRequest struct {
	PublicKey string `json:"publicKey"`
}

// ChallengeFrom converts a challenge to its wire form
func ChallengeFrom(ch confirm.Challenge) []ChallengeWord {
	positions := ch.Positions()
	out := make([]ChallengeWord, len(ch.Indices))
	for i, idx := range ch.Indices {
		out[i] = ChallengeWord{Index: idx, Position: positions[i]}
	}
	return out
}

// AnswerMap converts wire answers to the index map the gate expects
func AnswerMap(answers []Answer) map[int]string {
	out := make(map[int]string, len(answers))
	for _, a := range answers {
		out[a.Index] = a.Word
	}
	return out
}
