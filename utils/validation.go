package utils

import (
	"errors"
	netmail "net/mail"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// FieldErrors collects per-field validation messages in the shape the
// commerce backend uses: {"username": ["..."], "email": ["..."]}.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidateEmail accepts bare addresses only, rejecting "Name <addr>" forms.
func ValidateEmail(email string) error {
	addr, err := netmail.ParseAddress(email)
	if err != nil {
		return err
	}
	if addr.Address != email {
		return errors.New("email must be a bare address")
	}
	return nil
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.New("username may contain only letters, digits and @/./+/-/_ and must be 1-150 characters")
	}
	return nil
}

var (
	uppercase   = regexp.MustCompile(`[A-Z]`)
	lowercase   = regexp.MustCompile(`[a-z]`)
	digit       = regexp.MustCompile(`\d`)
	specialChar = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

// PasswordProblems lists every rule the password breaks, in a fixed order.
func PasswordProblems(password string) []string {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "password must be at least 8 characters long")
	}
	if !uppercase.MatchString(password) {
		problems = append(problems, "password must contain at least one uppercase letter")
	}
	if !lowercase.MatchString(password) {
		problems = append(problems, "password must contain at least one lowercase letter")
	}
	if !digit.MatchString(password) {
		problems = append(problems, "password must contain at least one digit")
	}
	if !specialChar.MatchString(password) {
		problems = append(problems, "password must contain at least one special character")
	}
	return problems
}
