package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewID generates an opaque public project id, e.g. "proj-48210-7731".
func NewID() (string, error) {
	a, err := randInt(10000, 99999)
	if err != nil {
		return "", err
	}
	b, err := randInt(1000, 9999)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("proj-%05d-%04d", a, b), nil
}

func randInt(min, max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, err
	}
	return min + n.Int64(), nil
}
