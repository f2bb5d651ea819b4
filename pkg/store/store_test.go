package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
	"github.com/kaushalya4s5s7/Axiom/pkg/ingest"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(opts ...Option) *Store {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(append(base, opts...)...)
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := newTestStore()
	st := s.State()
	assert.Equal(t, engine.MaxScore, st.AuditScore)
	assert.NotNil(t, st.Issues)
	assert.Empty(t, st.Issues)
	assert.Equal(t, engine.IssueCount{}, st.IssueCount)
	assert.NoError(t, s.LastError())
}

func TestIngestStructuredReport(t *testing.T) {
	s := newTestStore()
	raw := `{"issues":[{"title":"Reentrancy","severity":"critical"},{"title":"Unused var","severity":"low"}]}`

	require.NoError(t, s.Ingest(raw))
	st := s.State()

	assert.Equal(t, engine.IssueCount{Critical: 1, Low: 1}, st.IssueCount)
	assert.Equal(t, engine.MaxScore-engine.DefaultWeights.Critical-engine.DefaultWeights.Low, st.AuditScore)
	require.Len(t, st.Issues, 2)
	assert.Equal(t, "Reentrancy", st.Issues[0].Title)
	assert.Equal(t, engine.SeverityCritical, st.Issues[0].Severity)
	assert.Equal(t, engine.DefaultSource, st.Issues[0].Source)
	assert.NotEmpty(t, st.Issues[0].Recommendation)
	assert.Equal(t, "Unused var", st.Issues[1].Title)
	assert.Equal(t, raw, st.RawText)
	assert.Equal(t, fixedNow, st.IngestedAt)
}

func TestIngestEmptyInputKeepsState(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Ingest(`{"issues":[{"title":"Reentrancy","severity":"critical"}]}`))
	before := s.State()

	err := s.Ingest("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingest.ErrMalformedInput))
	var mErr *ingest.MalformedInputError
	assert.True(t, errors.As(err, &mErr))

	assert.Equal(t, before, s.State())
	assert.Equal(t, err, s.LastError())

	require.NoError(t, s.Ingest("Low: floating pragma"))
	assert.NoError(t, s.LastError())
}

func TestIngestTextWithoutFindings(t *testing.T) {
	s := newTestStore()
	raw := "Analysis complete.\n\nThe contract compiles and all tests pass."

	require.NoError(t, s.Ingest(raw))
	st := s.State()
	assert.Empty(t, st.Issues)
	assert.True(t, st.Empty())
	assert.Equal(t, engine.MaxScore, st.AuditScore)
	assert.Equal(t, engine.IssueCount{}, st.IssueCount)
	assert.Equal(t, raw, st.RawText)
	assert.Equal(t, raw, st.RawPreview())
}

func TestIngestInlineFinding(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Ingest("Critical: Reentrancy on line 42 in Vault.sol"))

	st := s.State()
	require.Len(t, st.Issues, 1)
	is := st.Issues[0]
	assert.Equal(t, engine.SeverityCritical, is.Severity)
	require.NotNil(t, is.Line)
	assert.Equal(t, 42, *is.Line)
	assert.Contains(t, is.Source, "Vault.sol")
	assert.Contains(t, is.Recommendation, "Vault.sol")
}

func TestIngestContractHash(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Ingest(`{"issues":[],"contractHash":"0xfeed","score":88}`))
	st := s.State()
	assert.Equal(t, "0xfeed", st.ContractHash)
	require.NotNil(t, st.EngineScore)
	assert.Equal(t, 88, *st.EngineScore)
	assert.Equal(t, engine.MaxScore, st.AuditScore)

	require.NoError(t, s.Ingest(`{"issues":[],"contractHash":"0xfeed"}`, WithContractHash("0xbeef")))
	assert.Equal(t, "0xbeef", s.State().ContractHash)
}

func TestIngestIsIdempotent(t *testing.T) {
	raw := "## Reentrancy in withdraw\nVault.sol:10\n\n## Reentrancy in withdraw\nVault.sol:10\n\n[Low] Unused variable"

	s := newTestStore()
	require.NoError(t, s.Ingest(raw))
	first := s.State()
	require.NoError(t, s.Ingest(raw))
	second := s.State()

	assert.Equal(t, first, second)
	require.Len(t, first.Issues, 3)
	assert.Equal(t, first.Issues[0].ID+"-2", first.Issues[1].ID)
}

func TestIngestCountsMatchIssues(t *testing.T) {
	s := newTestStore()
	raw := `[{"severity":"critical"},{"severity":"HIGH"},{"severity":"warning"},{"title":"gas optimization"},{"title":"???"}]`
	require.NoError(t, s.Ingest(raw))

	st := s.State()
	assert.Equal(t, engine.IssueCount{Critical: 1, High: 1, Medium: 1, Low: 1, Unknown: 1}, st.IssueCount)
	assert.Equal(t, len(st.Issues), st.IssueCount.Total())
}

func TestStateIsACopy(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Ingest("Critical: Reentrancy on line 42 in Vault.sol"))

	st := s.State()
	st.Issues[0].Title = "changed"
	*st.Issues[0].Line = 7
	st.Issues = append(st.Issues, engine.AuditIssue{})

	fresh := s.State()
	require.Len(t, fresh.Issues, 1)
	assert.Equal(t, "Reentrancy on line 42 in Vault.sol", fresh.Issues[0].Title)
	assert.Equal(t, 42, *fresh.Issues[0].Line)
}

func TestWithPolicy(t *testing.T) {
	p := engine.DefaultPolicy()
	p.Weights = engine.Weights{Critical: 50, High: 20, Medium: 10, Low: 5, Unknown: 0}
	p.Keywords.High = []string{"naming"}

	s := newTestStore(WithPolicy(p), WithRecommender(nil))
	require.NoError(t, s.Ingest(`[{"title":"Bad naming"},{"severity":"critical"}]`))

	st := s.State()
	assert.Equal(t, engine.IssueCount{Critical: 1, High: 1}, st.IssueCount)
	assert.Equal(t, 30, st.AuditScore)
	for _, is := range st.Issues {
		assert.Empty(t, is.Recommendation)
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore()

	var events []Event
	unsubscribe := s.Subscribe(func(e Event) {
		// the swap is already visible when listeners run
		assert.Equal(t, e.Report.AuditScore, s.State().AuditScore)
		events = append(events, e)
	})

	require.NoError(t, s.Ingest("High: tx.origin used for auth in Wallet.sol"))
	require.Error(t, s.Ingest("   "))

	require.Len(t, events, 2)
	assert.NoError(t, events[0].Err)
	assert.Len(t, events[0].Report.Issues, 1)
	assert.Error(t, events[1].Err)
	assert.Equal(t, events[0].Report, events[1].Report)

	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Ingest("Low: floating pragma"))
	assert.Len(t, events, 2)
}

func TestSubscribeOrder(t *testing.T) {
	s := newTestStore()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		s.Subscribe(func(Event) { order = append(order, i) })
	}
	require.NoError(t, s.Ingest("Low: floating pragma"))
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestConcurrentIngest(t *testing.T) {
	s := newTestStore()

	var (
		mu     sync.Mutex
		events int
	)
	s.Subscribe(func(e Event) {
		mu.Lock()
		events++
		mu.Unlock()
		assert.Equal(t, len(e.Report.Issues), e.Report.IssueCount.Total())
	})

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var issues string
			for j := 0; j <= n; j++ {
				if j > 0 {
					issues += ","
				}
				issues += fmt.Sprintf(`{"title":"issue %d","severity":"medium"}`, j)
			}
			assert.NoError(t, s.Ingest(`{"issues":[`+issues+`]}`))
		}(i)
	}

	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := s.State()
			assert.Equal(t, len(st.Issues), st.IssueCount.Total())
			assert.Equal(t, len(st.Issues), st.IssueCount.Medium)
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	assert.Equal(t, writers, events)
}
