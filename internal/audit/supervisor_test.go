package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/glados/internal/contentkey"
	"github.com/roach88/glados/internal/store"
	"github.com/roach88/glados/internal/testutil"
)

func manualTicker(tk *testutil.ManualTicker) Option {
	return WithTicker(func(time.Duration) Ticker { return tk })
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_AppliesQueueCapacity(t *testing.T) {
	sup := New(&fakeCatalog{}, &fakeAudits{}, &fakeNetwork{})
	assert.Equal(t, DefaultQueueCapacity, sup.Queue().Cap())

	sup = New(&fakeCatalog{}, &fakeAudits{}, &fakeNetwork{}, WithQueueCapacity(3))
	assert.Equal(t, 3, sup.Queue().Cap())
}

func TestSupervisor_ReturnsNilOnCancel(t *testing.T) {
	tk := testutil.NewManualTicker()
	sup := New(&fakeCatalog{}, &fakeAudits{}, &fakeNetwork{}, manualTicker(tk))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not return after cancel")
	}
}

func TestSupervisor_DoesNotWaitForInFlightLookup(t *testing.T) {
	tk := testutil.NewManualTicker()
	cat := &fakeCatalog{entries: []store.ContentKey{entry(1, 0x01)}}
	hung := &hangingNetwork{started: make(chan struct{}), release: make(chan struct{})}
	defer close(hung.release)

	sup := New(cat, &fakeAudits{}, hung, manualTicker(tk))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	<-hung.started
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor waited for a hung lookup")
	}
}

func TestSupervisor_NetworkErrorTerminates(t *testing.T) {
	tk := testutil.NewManualTicker()
	cat := &fakeCatalog{entries: []store.ContentKey{entry(1, 0x01)}}
	net := &fakeNetwork{err: errors.New("broken pipe")}

	sup := New(cat, &fakeAudits{}, net, manualTicker(tk))

	select {
	case err := <-runAsync(sup, context.Background()):
		require.Error(t, err)
		assert.True(t, IsNetworkError(err))
	case <-time.After(time.Second):
		t.Fatal("supervisor did not return after auditor failure")
	}
}

func TestSupervisor_StoreErrorTerminates(t *testing.T) {
	tk := testutil.NewManualTicker()
	cat := &fakeCatalog{entries: []store.ContentKey{entry(1, 0x01)}}
	net := &fakeNetwork{defaultPayload: []byte{1, 2, 3}}
	audits := &fakeAudits{err: errors.New("readonly database")}

	sup := New(cat, audits, net, manualTicker(tk))

	select {
	case err := <-runAsync(sup, context.Background()):
		require.Error(t, err)
		assert.True(t, IsStoreError(err))
	case <-time.After(time.Second):
		t.Fatal("supervisor did not return after store failure")
	}
}

func runAsync(sup *Supervisor, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()
	return done
}

// hangingNetwork blocks every lookup until release is closed.
type hangingNetwork struct {
	started chan struct{}
	release chan struct{}
	once    bool
}

func (n *hangingNetwork) GetContent(ctx context.Context, key contentkey.LookupKey) ([]byte, error) {
	if !n.once {
		n.once = true
		close(n.started)
	}
	<-n.release
	return nil, errors.New("released")
}

// End-to-end against the SQLite store.

func TestPipeline_PassingAudit(t *testing.T) {
	runPipelineScenario(t, []byte{1, 2, 3, 4, 5}, true)
}

func TestPipeline_FailingAudit(t *testing.T) {
	runPipelineScenario(t, []byte{1}, false)
}

func runPipelineScenario(t *testing.T, payload []byte, wantPassed bool) {
	t.Helper()
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.InsertContentKey(ctx, rawKey(0x01), time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	newest, err := st.InsertContentKey(ctx, rawKey(0x02, 0x01, 0x00, 0x00, 0x00), time.Date(2022, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	net := &fakeNetwork{
		payloads:       map[[32]byte][]byte{testHash(0x02): payload},
		defaultPayload: []byte{9, 9, 9},
	}
	tk := testutil.NewManualTicker()
	sup := New(st, st, net, manualTicker(tk), WithBatchSize(1))

	runCtx, cancel := context.WithCancel(ctx)
	done := runAsync(sup, runCtx)

	var audits []store.ContentAudit
	require.Eventually(t, func() bool {
		audits, err = st.AuditsForContentKey(ctx, newest.ID)
		return err == nil && len(audits) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	require.Len(t, audits, 1)
	assert.Equal(t, newest.ID, audits[0].ContentKeyID)
	assert.Equal(t, wantPassed, audits[0].Passed)

	lookups := net.calls()
	require.Len(t, lookups, 1)
	assert.Equal(t, testHash(0x02), lookups[0].Hash)

	all, err := st.ListAudits(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPipeline_RepeatedTicksDuplicateAudits(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	e, err := st.InsertContentKey(ctx, rawKey(0x05), time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	net := &fakeNetwork{defaultPayload: []byte{1, 2, 3}}
	tk := testutil.NewManualTicker()
	sup := New(st, st, net, manualTicker(tk))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := runAsync(sup, runCtx)

	countAudits := func() int {
		audits, err := st.AuditsForContentKey(ctx, e.ID)
		if err != nil {
			return -1
		}
		return len(audits)
	}

	require.Eventually(t, func() bool { return countAudits() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.True(t, tk.Tick(time.Second))
	require.Eventually(t, func() bool { return countAudits() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
