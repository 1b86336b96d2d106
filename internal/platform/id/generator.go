package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Generator creates opaque ids for optimization runs.
type Generator interface {
	NewID() (string, error)
}

// RunIDGenerator creates ids that sort by creation time: base36 unix millis,
// a dash, then 8 random hex bytes.
type RunIDGenerator struct {
	now func() time.Time
}

func NewRunIDGenerator() *RunIDGenerator {
	return &RunIDGenerator{now: time.Now}
}

func (g *RunIDGenerator) NewID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return strconv.FormatInt(g.now().UnixMilli(), 36) + "-" + hex.EncodeToString(buf), nil
}
