package utils

import (
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is a variable so tests can drop it to bcrypt.MinCost.
var BcryptCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsValidEmail accepts a bare address with a dotted domain. Display names
// ("Alice <a@x.com>") are rejected.
func IsValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}
