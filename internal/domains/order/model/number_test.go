package model

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ELY\d{11}$`)
	now := time.Now()

	for i := 0; i < 50; i++ {
		number := GenerateOrderNumber(now)
		assert.Len(t, number, 14)
		assert.True(t, pattern.MatchString(number), "order number %q", number)
		assert.True(t, strings.HasPrefix(number, OrderNumberPrefix))
	}
}

func TestGenerateOrderNumberEmbedsClock(t *testing.T) {
	at := time.UnixMilli(1712345678901)
	number := GenerateOrderNumber(at)

	// 1712345678901 % 1e8 = 45678901
	assert.Equal(t, "45678901", number[3:11])
}
