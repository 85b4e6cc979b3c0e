package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRoutesByCorrelationID(t *testing.T) {
	registry := NewRegistry()
	updates := registry.Register("job-1")

	registry.Publish("job-1", Update{Stage: StageStarting, Progress: 0})
	registry.Publish("job-2", Update{Stage: StageStarting, Progress: 0}) // no consumer, dropped
	registry.Publish("job-1", Update{Stage: StageComplete, Progress: 100})
	registry.Unregister("job-1")

	var got []Update
	for update := range updates {
		got = append(got, update)
	}
	require.Len(t, got, 2)
	assert.Equal(t, StageStarting, got[0].Stage)
	assert.Equal(t, StageComplete, got[1].Stage)
}

func TestRegistryDropsWhenConsumerStalls(t *testing.T) {
	registry := NewRegistry()
	updates := registry.Register("job-1")

	// Nobody drains: fill the buffer and keep publishing. Publish must not
	// block.
	for i := 0; i <= channelBuffer+10; i++ {
		registry.Publish("job-1", Update{Progress: i})
	}
	registry.Unregister("job-1")

	count := 0
	for range updates {
		count++
	}
	assert.Equal(t, channelBuffer, count)
}

func TestRegisterReplacesPreviousConsumer(t *testing.T) {
	registry := NewRegistry()
	first := registry.Register("job-1")
	second := registry.Register("job-1")

	registry.Publish("job-1", Update{Progress: 50})
	registry.Unregister("job-1")

	_, open := <-first
	assert.False(t, open, "first channel should be closed on re-register")

	update, open := <-second
	require.True(t, open)
	assert.Equal(t, 50, update.Progress)
}

func TestPublishDuringUnregisterDoesNotPanic(t *testing.T) {
	// A consumer disconnecting must never take down a publishing job.
	registry := NewRegistry()

	for i := 0; i < 100; i++ {
		registry.Register("job-1")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.Publish("job-1", Update{Progress: j})
			}
		}()
		go func() {
			defer wg.Done()
			registry.Unregister("job-1")
		}()
		wg.Wait()
	}
}

func TestUnregisterUnknownIDIsNoop(t *testing.T) {
	registry := NewRegistry()
	registry.Unregister("never-registered")
}

func TestReporterClampsRegressions(t *testing.T) {
	registry := NewRegistry()
	updates := registry.Register("job-1")

	reporter := NewReporter(registry, "job-1")
	reporter.Report(Update{Progress: 50})
	reporter.Report(Update{Progress: 30})
	reporter.Report(Update{Progress: 120})
	registry.Unregister("job-1")

	var got []int
	for update := range updates {
		got = append(got, update.Progress)
	}
	assert.Equal(t, []int{50, 50, 100}, got)
}

func TestReporterWithoutRegistry(t *testing.T) {
	reporter := NewReporter(nil, "")
	reporter.Report(Update{Progress: 10})
	reporter.Report(Update{Progress: 5})
}
