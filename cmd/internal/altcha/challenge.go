package altcha

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
)

// Puzzle is the server-issued challenge descriptor. JSON keys follow the ALTCHA widget wire format.
type Puzzle struct {
	Algorithm string `json:"algorithm"`
	Challenge string `json:"challenge"`
	MaxNumber uint64 `json:"maxnumber"`
	Salt      string `json:"salt"`
	Signature string `json:"signature"`
}

// IssueChallenge draws a fresh salt and secret number and returns the signed puzzle.
// The secret number is dropped on return; only hashing can recover a solution.
// A random-source failure is returned as-is and must be treated as internal.
func (s *Service) IssueChallenge() (Puzzle, error) {
	salt := make([]byte, s.cfg.SaltBytes)
	if _, err := io.ReadFull(s.rand, salt); err != nil {
		return Puzzle{}, fmt.Errorf("altcha.IssueChallenge: read salt: %w", err)
	}

	n, err := rand.Int(s.rand, new(big.Int).SetUint64(s.cfg.MaxNumber))
	if err != nil {
		return Puzzle{}, fmt.Errorf("altcha.IssueChallenge: draw number: %w", err)
	}

	return s.newPuzzle(hex.EncodeToString(salt), n.Uint64()), nil
}

func (s *Service) newPuzzle(salt string, secret uint64) Puzzle {
	challenge := workHash(salt, secret)
	return Puzzle{
		Algorithm: AlgorithmSHA256,
		Challenge: challenge,
		MaxNumber: s.cfg.MaxNumber,
		Salt:      salt,
		Signature: s.puzzles.Sign(challenge + salt),
	}
}

// workHash is hex(SHA256(salt || decimal(n))).
func workHash(salt string, n uint64) string {
	buf := make([]byte, 0, len(salt)+20)
	buf = append(buf, salt...)
	buf = strconv.AppendUint(buf, n, 10)
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
