package match

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func GenerateRoomCode(usedCodes map[string]bool) string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		roomCode := string(code)

		if !usedCodes[roomCode] {
			return roomCode
		}
	}
}

func ValidateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return errors.New("Room code must be exactly 6 characters")
	}

	for _, ch := range strings.ToUpper(code) {
		if !strings.ContainsRune(roomCodeAlphabet, ch) {
			return errors.New("Room code must contain only letters and digits")
		}
	}

	return nil
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// codeRegistry tracks codes held by tickets and rooms. A ticket's code is
// handed over to the room it becomes.
type codeRegistry struct {
	usedCodes map[string]bool
	mu        sync.Mutex
}

func newCodeRegistry() *codeRegistry {
	return &codeRegistry{usedCodes: make(map[string]bool)}
}

func (c *codeRegistry) Reserve() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	code := GenerateRoomCode(c.usedCodes)
	c.usedCodes[code] = true
	return code
}

func (c *codeRegistry) Release(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.usedCodes, code)
}

func (c *codeRegistry) InUse(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedCodes[code]
}
