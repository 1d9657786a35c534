// Package cryptox hashes and verifies user passwords.
//
// Hashes are bcrypt modular-crypt strings ($2a$<cost>$<salt><digest>), so the
// salt and the work factor travel with the hash and a single column is enough
// to store a credential.
package cryptox

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/escolario/internal/common"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used for every stored password.
const BcryptCost = 12

// MaxPasswordBytes is the longest plaintext bcrypt accepts.
const MaxPasswordBytes = 72

// Hasher turns a plaintext password into a self-describing hash and checks a
// plaintext against such a hash.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// BcryptHasher is the only Hasher implementation. It holds no state besides
// the cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

// NewBcryptHasherWithCost is meant for tests that cannot afford cost 12.
// Out-of-range values are clamped.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int { return h.cost }

// Hash returns a bcrypt hash with a fresh random salt.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", common.InvalidInput("Senha não pode ser vazia")
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", common.InvalidInput("Senha deve ter no máximo 72 bytes")
	}

	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.InvalidInput("Senha deve ter no máximo 72 bytes")
		}
		return "", oops.Code(common.CodeStoreError).Wrapf(err, "bcrypt hash")
	}
	return string(out), nil
}

// Verify reports whether plaintext matches hash. A mismatch, a malformed hash
// or a value that is not bcrypt at all yields false without an error.
func (h *BcryptHasher) Verify(plaintext, hash string) (bool, error) {
	if strings.TrimSpace(plaintext) == "" || strings.TrimSpace(hash) == "" {
		return false, common.InvalidInput("Senha não pode ser vazia")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return false, nil
	}
	return true, nil
}
