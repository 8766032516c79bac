package stage

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestZZDebugCollect(t *testing.T) {
	x, _ := newTestRuntime(t, observerFixture())
	key := installDisposableObserver(t, x)
	_ = key
	require.Eventually(t, func() bool {
		runtime.GC()
		x.observers.mu.RLock()
		binding, ok := x.observers.byKey[key]
		x.observers.mu.RUnlock()
		if !ok {
			return true
		}
		return !binding.observer.Alive()
	}, 10*time.Second, 50*time.Millisecond)
}
