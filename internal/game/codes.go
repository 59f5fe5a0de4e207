package game

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Palette holds the color tags handed out in join order.
var Palette = []string{
	"#ff6b6b",
	"#4dabf7",
	"#51cf66",
	"#ffa94d",
	"#ffd43b",
	"#845ef7",
	"#20c997",
	"#e64980",
	"#4361ee",
	"#3a0ca3",
	"#7209b7",
	"#f72585",
	"#4cc9f0",
	"#2b8a3e",
	"#e8590c",
	"#1098ad",
	"#5c940d",
	"#862e9c",
	"#c92a2a",
	"#495057",
}

func newJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf), nil
}

// ValidCode reports whether code, once normalized, can be a game code.
func ValidCode(code string) bool {
	code = NormalizeCode(code)
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// NormalizeCode canonicalizes user-typed join codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func colorFor(index int) string {
	if len(Palette) == 0 {
		return "#1a1a1a"
	}
	if index < 0 {
		index = 0
	}
	return Palette[index%len(Palette)]
}

func newParticipantID() string {
	return uuid.NewString()
}

// NewSessionToken mints an opaque client token for the session binder.
func NewSessionToken() string {
	return uuid.NewString()
}
