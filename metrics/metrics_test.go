package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("mujoco")
	require.NoError(t, m.Register(reg))

	// Second registration of the same collectors must fail.
	assert.Error(t, m.Register(reg))
}

func TestObserveLoad(t *testing.T) {
	m := New("test")

	m.ObserveLoad(SourceDescription, nil)
	m.ObserveLoad(SourceDescription, nil)
	m.ObserveLoad(SourceFile, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.modelsLoaded.WithLabelValues(SourceDescription, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelsLoaded.WithLabelValues(SourceFile, "failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelsLoaded.WithLabelValues(SourceBytes, "success")))
}

func TestObserveStep(t *testing.T) {
	m := New("test")
	for i := 0; i < 3; i++ {
		m.ObserveStep(time.Millisecond)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.steps))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
}

func TestGauges(t *testing.T) {
	m := New("test")

	m.AddVFSFiles(2)
	m.AddVFSFiles(-1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.vfsFiles))

	m.HandleOpened(KindModel)
	m.HandleOpened(KindModel)
	m.HandleClosed(KindModel)
	m.HandleOpened(KindState)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveHandles.WithLabelValues(KindModel)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveHandles.WithLabelValues(KindState)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLoad(SourceFile, nil)
		m.ObserveStep(time.Second)
		m.ObserveSerialized(10)
		m.AddVFSFiles(1)
		m.HandleOpened(KindVFS)
		m.HandleClosed(KindVFS)
	})
}
