package message

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	ErrNotRegistered      = errors.New("you must register your secret code first")
	ErrSelfConnect        = errors.New("cannot connect to yourself")
	ErrUnknownRequest     = errors.New("invalid connection request")
	ErrUnauthorizedAnswer = errors.New("unauthorized response")
	ErrInvalidDescription = errors.New("invalid session description format")
)

// ValidateConnectionRequest checks that the requester acts under its own
// registered code and is not trying to reach itself.
func ValidateConnectionRequest(fromCode, targetCode, requesterCode string) error {
	if requesterCode == "" || requesterCode != fromCode {
		return ErrNotRegistered
	}
	if fromCode == targetCode {
		return ErrSelfConnect
	}
	return nil
}

// ValidateConnectionResponse checks that the responder's registered code is
// the target code of the pending request it answers.
func ValidateConnectionResponse(responderCode, pendingTargetCode string) error {
	if responderCode == "" || responderCode != pendingTargetCode {
		return ErrUnauthorizedAnswer
	}
	return nil
}

// ValidateSessionDescription checks the structural shape of an offer or
// answer body: a known negotiation role and a non-empty description blob.
func ValidateSessionDescription(desc SessionDescription) error {
	if desc.Type != "offer" && desc.Type != "answer" {
		return ErrInvalidDescription
	}
	if desc.SDP == "" {
		return ErrInvalidDescription
	}
	return nil
}

// HasCandidateBody reports whether a candidate payload carries anything
// worth relaying. Candidates are best-effort and never validated further.
func HasCandidateBody(candidate json.RawMessage) bool {
	trimmed := bytes.TrimSpace(candidate)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
