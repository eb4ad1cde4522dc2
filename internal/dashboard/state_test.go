package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttracx/deepboreai/internal/models"
	"github.com/ttracx/deepboreai/internal/testutil"
)

func TestState_StartsEmpty(t *testing.T) {
	s := NewState()

	assert.Nil(t, s.Reading())
	assert.NotNil(t, s.History())
	assert.Empty(t, s.History())

	snap := s.Snapshot()
	assert.Nil(t, snap.Reading)
	assert.Equal(t, models.ConnectionIdle, snap.Status.Connection)
}

func TestState_SetReadingReplacesWholesale(t *testing.T) {
	s := NewState()
	s.SetReading(models.Reading{Timestamp: "a", BitDepth: 100, MudLoss: true, Priority: models.PriorityHigh})
	s.SetReading(models.Reading{Timestamp: "b", PredictedROP: 9})

	r := s.Reading()
	require.NotNil(t, r)
	assert.Equal(t, models.Reading{Timestamp: "b", PredictedROP: 9}, *r)
}

func TestState_ApplyHistoryDropsStaleTokens(t *testing.T) {
	s := NewState()

	assert.True(t, s.ApplyHistory(2, []models.HistoryEntry{testutil.Entry("new", 2)}))
	assert.False(t, s.ApplyHistory(1, []models.HistoryEntry{testutil.Entry("old", 1)}))
	assert.False(t, s.ApplyHistory(2, nil))

	hist := s.History()
	require.Len(t, hist, 1)
	assert.Equal(t, "new", hist[0].Timestamp)
	assert.Equal(t, uint64(2), s.Snapshot().Status.LastFetchToken)

	assert.True(t, s.ApplyHistory(3, []models.HistoryEntry{}))
	assert.Empty(t, s.History())
}

func TestState_FetchErrors(t *testing.T) {
	s := NewState()
	boom := errors.New("history endpoint returned 500")

	s.ApplyHistory(1, []models.HistoryEntry{testutil.Entry("kept", 1)})

	// Failure of a newer request is surfaced, history stays.
	s.RecordFetchError(2, boom)
	snap := s.Snapshot()
	assert.Equal(t, boom.Error(), snap.Status.LastFetchErr)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "kept", snap.History[0].Timestamp)

	// An older success does not clear a newer failure.
	s.ApplyHistory(1, nil)
	assert.Equal(t, boom.Error(), s.Snapshot().Status.LastFetchErr)

	// A newer success clears it.
	s.ApplyHistory(3, []models.HistoryEntry{testutil.Entry("fresh", 3)})
	assert.Empty(t, s.Snapshot().Status.LastFetchErr)

	// Failures older than the applied token are ignored.
	s.RecordFetchError(2, boom)
	assert.Empty(t, s.Snapshot().Status.LastFetchErr)
}

func TestState_SnapshotIsACopy(t *testing.T) {
	s := NewState()
	s.SetReading(models.Reading{Timestamp: "t", BitDepth: 1})
	s.ApplyHistory(1, []models.HistoryEntry{testutil.Entry("h", 1)})

	snap := s.Snapshot()
	snap.Reading.BitDepth = 999
	snap.History[0].Timestamp = "mutated"

	assert.Equal(t, 1.0, s.Reading().BitDepth)
	assert.Equal(t, "h", s.History()[0].Timestamp)
}

func TestState_Connection(t *testing.T) {
	s := NewState()
	s.SetConnection(models.ConnectionDisconnected, errors.New("reading feed: EOF"))

	st := s.Snapshot().Status
	assert.Equal(t, models.ConnectionDisconnected, st.Connection)
	assert.Equal(t, "reading feed: EOF", st.ConnectionErr)

	s.SetConnection(models.ConnectionConnected, nil)
	assert.Empty(t, s.Snapshot().Status.ConnectionErr)
}

func TestState_Subscribe(t *testing.T) {
	s := NewState()
	ch, cancel := s.Subscribe()

	s.SetReading(models.Reading{Timestamp: "1"})
	s.SetReading(models.Reading{Timestamp: "2"})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}
	// Coalesced: at most one pending signal.
	select {
	case <-ch:
		t.Fatal("notifications should coalesce")
	default:
	}

	cancel()
	cancel()
	s.SetReading(models.Reading{Timestamp: "3"})
	select {
	case <-ch:
		t.Fatal("unsubscribed channel was signalled")
	default:
	}
}
