package employee

import (
	"context"
	"fmt"
	"math/rand/v2"

	employeeerrors "go-leavedesk/internal/employee/errors"
)

const maxMatriculeAttempts = 20

// RandomMatricule draws an 8-digit registration number without a leading zero.
func RandomMatricule() string {
	return fmt.Sprintf("%08d", 10_000_000+rand.IntN(90_000_000))
}

// allocateMatricule rejection-samples draw against the numbers already in use.
func allocateMatricule(ctx context.Context, repo Repository, draw func() string) (string, error) {
	for range maxMatriculeAttempts {
		candidate := draw()
		taken, err := repo.MatriculeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", employeeerrors.ErrMatriculeUnavailable
}
