package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	assert.Equal(t, "No requests sent.", summary(0, 0))
	assert.Equal(t, "6 requests, 6 ok, 0.0% failed", summary(6, 6))
	assert.Equal(t, "4 requests, 1 ok, 75.0% failed", summary(4, 1))
}
