package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Character classes for temporary passwords. Look-alike glyphs (0/O, 1/l/I)
// and shell-special symbols are left out because operators copy these values
// from a terminal.
const (
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars  = "abcdefghijkmnopqrstuvwxyz"
	digitChars  = "23456789"
	symbolChars = "!@#%^*-_=+"

	MinTemporaryLength = 8
	MaxTemporaryLength = 64
)

var (
	ErrLengthTooShort     = errors.New("temporary password length must be at least 8")
	ErrLengthTooLong      = errors.New("temporary password length must be at most 64")
	ErrNoCharacterClasses = errors.New("at least one character class must be enabled")
)

// PasswordPolicy describes the shape of a generated temporary password.
type PasswordPolicy struct {
	Length  int
	Upper   bool
	Lower   bool
	Digits  bool
	Symbols bool
}

// DefaultPasswordPolicy returns a 16 character policy using every class.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		Length:  16,
		Upper:   true,
		Lower:   true,
		Digits:  true,
		Symbols: true,
	}
}

func (p PasswordPolicy) classes() []string {
	var sets []string
	if p.Upper {
		sets = append(sets, upperChars)
	}
	if p.Lower {
		sets = append(sets, lowerChars)
	}
	if p.Digits {
		sets = append(sets, digitChars)
	}
	if p.Symbols {
		sets = append(sets, symbolChars)
	}
	return sets
}

// GenerateTemporaryPassword creates a random password satisfying policy, with
// at least one character from every enabled class.
func GenerateTemporaryPassword(policy PasswordPolicy) (string, error) {
	if policy.Length < MinTemporaryLength {
		return "", ErrLengthTooShort
	}
	if policy.Length > MaxTemporaryLength {
		return "", ErrLengthTooLong
	}

	sets := policy.classes()
	if len(sets) == 0 {
		return "", ErrNoCharacterClasses
	}

	var pool string
	for _, s := range sets {
		pool += s
	}

	out := make([]byte, policy.Length)
	for i := range out {
		charset := pool
		if i < len(sets) {
			charset = sets[i]
		}
		ch, err := randChar(charset)
		if err != nil {
			return "", err
		}
		out[i] = ch
	}

	if err := secureShuffle(out); err != nil {
		return "", err
	}

	return string(out), nil
}

func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

// secureShuffle is a Fisher-Yates shuffle driven by crypto/rand.
func secureShuffle(data []byte) error {
	for i := len(data) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		data[i], data[j.Int64()] = data[j.Int64()], data[i]
	}
	return nil
}
