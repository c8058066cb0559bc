package altcha

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Solution is the client-submitted answer: the puzzle echoed back plus the candidate number.
type Solution struct {
	Algorithm string `json:"algorithm"`
	Challenge string `json:"challenge"`
	Number    uint64 `json:"number"`
	Salt      string `json:"salt"`
	Signature string `json:"signature"`
}

// wireSolution detects missing fields; the widget may add keys such as "took", which are ignored.
type wireSolution struct {
	Algorithm *string `json:"algorithm"`
	Challenge *string `json:"challenge"`
	Number    *uint64 `json:"number"`
	Salt      *string `json:"salt"`
	Signature *string `json:"signature"`
}

// DecodeSolution parses the widget's base64(JSON) payload.
// Every structural problem is reported as ErrMalformed, before any cryptographic check runs.
func DecodeSolution(encoded string) (Solution, error) {
	const op = "altcha.DecodeSolution"

	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return Solution{}, opErr(op, ErrMalformed, "empty payload")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Solution{}, opErr(op, ErrMalformed, "base64: %v", err)
	}

	var w wireSolution
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&w); err != nil {
		return Solution{}, opErr(op, ErrMalformed, "json: %v", err)
	}
	if dec.More() {
		return Solution{}, opErr(op, ErrMalformed, "extra data after JSON object")
	}

	switch {
	case w.Number == nil:
		return Solution{}, opErr(op, ErrMalformed, "missing number")
	case w.Challenge == nil || *w.Challenge == "":
		return Solution{}, opErr(op, ErrMalformed, "missing challenge")
	case w.Salt == nil || *w.Salt == "":
		return Solution{}, opErr(op, ErrMalformed, "missing salt")
	case w.Signature == nil || *w.Signature == "":
		return Solution{}, opErr(op, ErrMalformed, "missing signature")
	}

	alg := AlgorithmSHA256
	if w.Algorithm != nil {
		alg = *w.Algorithm
	}
	if !strings.EqualFold(alg, AlgorithmSHA256) {
		return Solution{}, opErr(op, ErrMalformed, "unsupported algorithm %q", alg)
	}

	return Solution{
		Algorithm: alg,
		Challenge: *w.Challenge,
		Number:    *w.Number,
		Salt:      *w.Salt,
		Signature: *w.Signature,
	}, nil
}

// EncodeSolution is the inverse of DecodeSolution, used by clients.
func EncodeSolution(sol Solution) (string, error) {
	b, err := json.Marshal(sol)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Verify checks authenticity first, then the proof of work.
//
// The recomputed digest must equal the challenge exactly; a shared prefix is
// not enough. Difficulty is fixed at issuance by MaxNumber, so verification is O(1).
func (s *Service) Verify(sol Solution) error {
	const op = "altcha.Verify"

	if !s.puzzles.Verify(sol.Challenge+sol.Salt, sol.Signature) {
		return opErr(op, ErrSignatureMismatch, "signature=%s", prefix(sol.Signature))
	}

	got := workHash(sol.Salt, sol.Number)
	if got != sol.Challenge {
		return opErr(op, ErrProofMismatch, "hash=%s challenge=%s", prefix(got), prefix(sol.Challenge))
	}
	return nil
}

// VerifySolution reports whether sol is an authentic, correct solution.
func (s *Service) VerifySolution(sol Solution) bool {
	return s.Verify(sol) == nil
}

// prefix shortens digests for logs.
func prefix(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
