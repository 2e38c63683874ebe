package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequestID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		assert.Regexp(t, re, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 90)
}
