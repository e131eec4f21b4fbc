package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong: пароль длиннее 72 байт, bcrypt такие не принимает.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// BcryptHasher: соль генерируется bcrypt на каждый вызов и хранится внутри хеша.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher приводит cost к допустимому диапазону bcrypt.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int { return h.cost }

// Hash возвращает bcrypt.ErrPasswordTooLong для паролей длиннее 72 байт.
func (h *BcryptHasher) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Verify сравнивает за постоянное время. На битом хеше просто false.
func (h *BcryptHasher) Verify(hashed []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hashed, []byte(plaintext)) == nil
}
