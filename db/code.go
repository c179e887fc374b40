package db

import (
	"math/rand"
	"strings"

	"github.com/Merka34/pocket-scrum-bk/models"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 5

	// With a live-room count far below 36^5 the expected retry count
	// is ~1; the cap exists so a pathological caller gets an error
	// instead of a spin.
	maxCodeAttempts = 10000
)

// generateCode draws 5-character uppercase-alphanumeric codes until one
// does not collide with a live room. The caller holds the registry lock.
func generateCode(existing map[string]*models.Room) (string, error) {
	var b strings.Builder
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		b.Reset()
		for i := 0; i < codeLength; i++ {
			b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
		}
		code := b.String()
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}
	return "", models.ErrCapacityExhausted
}
