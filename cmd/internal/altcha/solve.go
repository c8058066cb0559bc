package altcha

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const solveCheckEvery = 1024

// Solve brute-forces the puzzle the way the browser widget does: counting up from
// zero to MaxNumber inclusive and returning the first number whose digest equals
// the challenge. It returns ErrNoSolution when the range is exhausted and ctx.Err()
// when cancelled.
func Solve(ctx context.Context, p Puzzle) (uint64, error) {
	const op = "altcha.Solve"

	if !strings.EqualFold(p.Algorithm, AlgorithmSHA256) {
		return 0, opErr(op, ErrMalformed, "unsupported algorithm %q", p.Algorithm)
	}
	target, err := hex.DecodeString(p.Challenge)
	if err != nil || len(target) != sha256.Size {
		return 0, opErr(op, ErrMalformed, "challenge is not a hex sha-256 digest")
	}

	buf := make([]byte, 0, len(p.Salt)+20)
	buf = append(buf, p.Salt...)
	base := len(buf)

	for n := uint64(0); ; n++ {
		if n%solveCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		buf = strconv.AppendUint(buf[:base], n, 10)
		sum := sha256.Sum256(buf)
		if bytes.Equal(sum[:], target) {
			return n, nil
		}
		if n == p.MaxNumber {
			break
		}
	}
	return 0, opErr(op, ErrNoSolution, "searched 0..%d", p.MaxNumber)
}

// SolutionFor echoes p back with number filled in.
func SolutionFor(p Puzzle, number uint64) Solution {
	return Solution{
		Algorithm: p.Algorithm,
		Challenge: p.Challenge,
		Number:    number,
		Salt:      p.Salt,
		Signature: p.Signature,
	}
}
