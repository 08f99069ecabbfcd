package db

import (
	"math/rand"
	"time"
)

const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

var seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// RandomID generates a random alphanumeric string of the given length,
// suitable for use as a session identifier.
func RandomID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = idCharset[seededRand.Intn(len(idCharset))]
	}
	return string(b)
}
