package game

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidToken = errors.New("authorization token is malformed")
	ErrUnknownToken = errors.New("player token has not been found")
)

// TokenLength is the number of hex characters in a token.
const TokenLength = 32

type Token string

// TokenSource produces player tokens. Tests substitute a deterministic reader.
type TokenSource struct {
	Reader io.Reader
}

func (s TokenSource) Next() (Token, error) {
	reader := s.Reader
	if reader == nil {
		reader = rand.Reader
	}
	buf := make([]byte, TokenLength/2)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return Token(hex.EncodeToString(buf)), nil
}

// ParseToken validates a raw token: exactly 32 hex characters.
func ParseToken(raw string) (Token, error) {
	if len(raw) != TokenLength {
		return "", ErrInvalidToken
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", ErrInvalidToken
	}
	return Token(raw), nil
}
