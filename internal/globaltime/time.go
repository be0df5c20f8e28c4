package globaltime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// ProcessingDate returns the ingestion date in YYYY-MM-DD form.
func ProcessingDate() string {
	return UTC().Format("2006-01-02")
}

// DateKey returns the per-user bucket key in DDMMYYYY form.
func DateKey() string {
	return UTC().Format("02012006")
}

// ISO returns the current instant in RFC3339 form, used as the default
// published date when a source provides none.
func ISO() string {
	return UTC().Format(time.RFC3339)
}

func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
