package goroutine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestRecoveryHandler_Run(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)

	assert.False(t, rh.Run(func() {}))
	assert.True(t, rh.Run(func() { panic("boom") }))
	assert.Len(t, log.lines, 1)
	assert.Contains(t, log.lines[0], "boom")
}

func TestRecoveryHandler_SafeGoWithContext(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)

	done := make(chan struct{})
	rh.SafeGoWithContext(context.Background(), func(ctx context.Context) {
		defer close(done)
		panic("sweep failed")
	})
	<-done

	assert.Eventually(t, func() bool {
		log.mu.Lock()
		defer log.mu.Unlock()
		return len(log.lines) == 1
	}, time.Second, 10*time.Millisecond)
}
