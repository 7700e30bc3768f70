package utils_test

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"storefront/utils"
)

func TestCheckPasswordHash(t *testing.T) {
	password := "SecurePass123!"

	// Generate a hash for testing
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to generate password hash: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{
			name:     "Valid password should match hash",
			password: password,
			hash:     string(hash),
			want:     true,
		},
		{
			name:     "Invalid password should not match hash",
			password: "WrongPassword123!",
			hash:     string(hash),
			want:     false,
		},
		{
			name:     "Empty password should not match hash",
			password: "",
			hash:     string(hash),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.CheckPasswordHash(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPasswordHash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("Str0ng!pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "Str0ng!pass" {
		t.Fatal("HashPassword() returned the plain password")
	}
	if !utils.CheckPasswordHash("Str0ng!pass", hash) {
		t.Error("hash does not verify against its password")
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{
			name:  "Valid email should pass validation",
			email: "user@example.com",
			want:  true,
		},
		{
			name:  "Valid email with subdomain should pass validation",
			email: "user@subdomain.example.com",
			want:  true,
		},
		{
			name:  "Valid email with plus addressing should pass validation",
			email: "user+tag@example.com",
			want:  true,
		},
		{
			name:  "Email missing @ symbol should fail validation",
			email: "userexample.com",
			want:  false,
		},
		{
			name:  "Email missing domain should fail validation",
			email: "user@",
			want:  false,
		},
		{
			name:  "Email with display name should fail validation",
			email: "Jane <jane@example.com>",
			want:  false,
		},
		{
			name:  "Empty email should fail validation",
			email: "",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateEmail(tt.email)
			if (err == nil) != tt.want {
				t.Errorf("ValidateEmail() error = %v, wantErr = %v", err, !tt.want)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{name: "Plain username", username: "jane", want: true},
		{name: "Username with allowed punctuation", username: "jane.doe+shop@x-y_z", want: true},
		{name: "Username with space", username: "jane doe", want: false},
		{name: "Empty username", username: "", want: false},
		{name: "Username too long", username: strings.Repeat("a", 151), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateUsername(tt.username)
			if (err == nil) != tt.want {
				t.Errorf("ValidateUsername() error = %v, wantErr = %v", err, !tt.want)
			}
		})
	}
}

func TestPasswordProblems(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{
			name:     "Valid password has no problems",
			password: "SecureP@ss123",
			want:     nil,
		},
		{
			name:     "Password too short",
			password: "Abc1!",
			want:     []string{"password must be at least 8 characters long"},
		},
		{
			name:     "Password without uppercase",
			password: "securepass123!",
			want:     []string{"password must contain at least one uppercase letter"},
		},
		{
			name:     "Password without lowercase",
			password: "SECUREPASS123!",
			want:     []string{"password must contain at least one lowercase letter"},
		},
		{
			name:     "Password without digits",
			password: "SecurePass!",
			want:     []string{"password must contain at least one digit"},
		},
		{
			name:     "Password without special characters",
			password: "SecurePass123",
			want:     []string{"password must contain at least one special character"},
		},
		{
			name:     "Empty password breaks every rule",
			password: "",
			want: []string{
				"password must be at least 8 characters long",
				"password must contain at least one uppercase letter",
				"password must contain at least one lowercase letter",
				"password must contain at least one digit",
				"password must contain at least one special character",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utils.PasswordProblems(tt.password)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("PasswordProblems() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	fe := utils.FieldErrors{}
	if !fe.Empty() {
		t.Fatal("new FieldErrors should be empty")
	}
	fe.Add("username", "taken")
	fe.Add("username", "too short")
	if fe.Empty() {
		t.Fatal("FieldErrors should not be empty after Add")
	}
	if len(fe["username"]) != 2 {
		t.Errorf("username errors = %v, want 2 entries", fe["username"])
	}
}
