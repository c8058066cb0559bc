package altcha

import (
	"context"
	"errors"
	"testing"
)

func TestSolve_FindsSecretNumber(t *testing.T) {
	t.Parallel()
	s := newTestService(t)

	p := s.newPuzzle("0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f", 2024)
	n, err := Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if workHash(p.Salt, n) != p.Challenge {
		t.Fatalf("Solve returned %d which does not hash to the challenge", n)
	}
	if !s.VerifySolution(SolutionFor(p, n)) {
		t.Fatalf("solved puzzle failed verification")
	}
}

func TestSolve_NoSolutionInRange(t *testing.T) {
	t.Parallel()
	s := newTestService(t)

	p := s.newPuzzle("0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f", 900)
	p.MaxNumber = 100

	if _, err := Solve(context.Background(), p); !errors.Is(err, ErrNoSolution) {
		t.Fatalf("expected ErrNoSolution, got %v", err)
	}
}

func TestSolve_Cancelled(t *testing.T) {
	t.Parallel()
	s := newTestService(t)

	p := s.newPuzzle("0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f", 49999)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Solve(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSolve_MalformedPuzzle(t *testing.T) {
	t.Parallel()

	cases := []Puzzle{
		{Algorithm: "SHA-512", Challenge: workHash("s", 1), Salt: "s", MaxNumber: 10},
		{Algorithm: "SHA-256", Challenge: "zz", Salt: "s", MaxNumber: 10},
		{Algorithm: "SHA-256", Challenge: "abcd", Salt: "s", MaxNumber: 10},
	}
	for i, p := range cases {
		if _, err := Solve(context.Background(), p); !errors.Is(err, ErrMalformed) {
			t.Fatalf("case %d: expected ErrMalformed, got %v", i, err)
		}
	}
}
