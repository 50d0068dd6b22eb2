package platform

import (
	"crypto/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const shortIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const shortIDLength = 6

func NewID() string {
	return uuid.New().String()
}

func shortID() string {
	b := make([]byte, shortIDLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = shortIDAlphabet[b[i]%byte(len(shortIDAlphabet))]
	}
	return string(b)
}

// NewJobID builds a job identifier of the form
// {source}-{base36 millisecond timestamp}-{random}.
func NewJobID(source string) string {
	return source + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + shortID()
}
