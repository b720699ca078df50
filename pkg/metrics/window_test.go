package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowSnapshotEmpty(t *testing.T) {
	ws := NewWindows()
	snap := ws.Snapshot("overall")
	assert.Equal(t, 0, snap.Count)
	assert.Equal(t, 0.0, snap.P95Ms)
}

func TestWindowSnapshotStats(t *testing.T) {
	ws := NewWindows()
	for i := 1; i <= 100; i++ {
		ws.Observe("kb", float64(i))
	}
	snap := ws.Snapshot("kb")
	assert.Equal(t, 100, snap.Count)
	assert.Equal(t, 1.0, snap.MinMs)
	assert.Equal(t, 100.0, snap.MaxMs)
	assert.Equal(t, 50.5, snap.AvgMs)
	assert.Equal(t, 95.0, snap.P95Ms)
}

func TestWindowSingleObservation(t *testing.T) {
	ws := NewWindows()
	ws.Observe("order", 42)
	snap := ws.Snapshot("order")
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 42.0, snap.P95Ms)
}

func TestWindowRollsOver(t *testing.T) {
	ws := NewWindows()
	for i := 0; i < windowSize; i++ {
		ws.Observe("direct", 1)
	}
	ws.Observe("direct", 1000)

	snap := ws.Snapshot("direct")
	assert.Equal(t, windowSize, snap.Count)
	assert.Equal(t, 1000.0, snap.MaxMs)
}

func TestSnapshotAllCategories(t *testing.T) {
	ws := NewWindows()
	ws.Observe("kb", 10)
	ws.Observe("overall", 10)

	all := ws.SnapshotAll()
	assert.Contains(t, all, "kb")
	assert.Contains(t, all, "overall")
	assert.Equal(t, 1, all["kb"].Count)
}
