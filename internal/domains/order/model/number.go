package model

import (
	"fmt"
	"math/rand"
	"time"
)

// OrderNumberPrefix identifies the store on every order number.
const OrderNumberPrefix = "ELY"

// GenerateOrderNumber builds a human-readable order number: prefix, the last
// eight digits of the unix-millisecond clock, and a three-digit random
// suffix. Collisions are possible under concurrent checkout; the repository
// relies on the unique constraint and the caller retries with a fresh number.
func GenerateOrderNumber(now time.Time) string {
	millis := now.UnixMilli()
	timePart := millis % 100000000
	suffix := rand.Intn(1000)
	return fmt.Sprintf("%s%08d%03d", OrderNumberPrefix, timePart, suffix)
}
