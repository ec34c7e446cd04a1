package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateRoomCode - generates a short human friendly room identifier.
func GenerateRoomCode() (string, error) {
	var code strings.Builder
	code.Grow(roomCodeLength)

	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := 0; i < roomCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		code.WriteByte(roomCodeAlphabet[n.Int64()])
	}

	return code.String(), nil
}
