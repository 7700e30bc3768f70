package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

func GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// Fingerprint identifies a credential in logs without revealing it.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

// CredentialFromHeader extracts the token from "Bearer <t>" or "Token <t>".
func CredentialFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(token)
	}
	return ""
}
