package models

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxIdentityLength: предел длины адреса по RFC 5321.
const MaxIdentityLength = 254

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity: стабильный уникальный ключ пользователя (обычно e-mail).
// Значение создаётся только через ParseIdentity; нулевое значение невалидно.
type Identity struct {
	value string
}

// ParseIdentity обрезает пробелы по краям и отклоняет пустые строки,
// слишком длинные значения, невалидный UTF-8 и пробельные/управляющие символы.
func ParseIdentity(raw string) (Identity, error) {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > MaxIdentityLength || !utf8.ValidString(v) {
		return Identity{}, ErrInvalidIdentity
	}
	for _, r := range v {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return Identity{}, ErrInvalidIdentity
		}
	}
	return Identity{value: v}, nil
}

// MustParseIdentity для тестов и констант.
func MustParseIdentity(raw string) Identity {
	id, err := ParseIdentity(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (i Identity) String() string { return i.value }

func (i Identity) IsZero() bool { return i.value == "" }
