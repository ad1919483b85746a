package links

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is an adjustable clock for expiry tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testRegistry returns a registry with a controllable clock, sequential
// IDs and a recorder of deleted file paths.
func testRegistry(t *testing.T) (*Registry, *testClock, *[]string) {
	t.Helper()
	clock := newTestClock()
	seq := 0
	deleted := &[]string{}
	var mu sync.Mutex

	registry := NewRegistry(RegistryConfig{
		Clock: clock.Now,
		IDSource: func() (string, error) {
			seq++
			return fmt.Sprintf("%032d", seq), nil
		},
		RemoveFile: func(path string) error {
			mu.Lock()
			defer mu.Unlock()
			*deleted = append(*deleted, path)
			return nil
		},
	})
	return registry, clock, deleted
}

func testFiles() []FileRef {
	return []FileRef{
		{Nome: "contrato.pdf", Tamanho: 1024, Caminho: "/tmp/uploads/aaa.pdf"},
		{Nome: "balanco.xlsx", Tamanho: 2048, Caminho: "/tmp/uploads/bbb.xlsx"},
	}
}

func TestIssueThenValidate(t *testing.T) {
	registry, clock, _ := testRegistry(t)

	id, err := registry.Issue(testFiles(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, id, 32)

	result := registry.Validate(id)
	require.True(t, result.Valid)
	assert.Empty(t, result.Reason)
	assert.Equal(t, 0, result.Link.Downloads)
	assert.Equal(t, DefaultMaxDownloads, result.Link.MaxDownloads)
	assert.Equal(t, clock.Now().Add(DefaultTTL), result.Link.ExpiraEm)
	assert.Len(t, result.Link.Arquivos, 2)
}

func TestValidateUnknownID(t *testing.T) {
	registry, _, _ := testRegistry(t)

	result := registry.Validate("deadbeefdeadbeefdeadbeefdeadbeef")
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonNotFound, result.Reason)
}

func TestDownloadLimit(t *testing.T) {
	registry, _, _ := testRegistry(t)

	id, err := registry.Issue(testFiles(), 5, time.Hour)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		result := registry.Validate(id)
		require.True(t, result.Valid, "download %d should validate", i+1)
		assert.Equal(t, i, result.Link.Downloads)
		registry.Consume(id)
	}

	// Sixth validation trips the budget and kills the link
	result := registry.Validate(id)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonLimitReached, result.Reason)

	// Once dead, the link stays dead
	result = registry.Validate(id)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonDeactivated, result.Reason)
}

func TestExpiry(t *testing.T) {
	registry, clock, _ := testRegistry(t)

	id, err := registry.Issue(testFiles(), 5, time.Hour)
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Minute)

	result := registry.Validate(id)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonExpired, result.Reason)

	// Expiry flipped the active flag; the next check reports deactivated
	result = registry.Validate(id)
	assert.Equal(t, ReasonDeactivated, result.Reason)
}

func TestConsumeOnMissingIDIsNoop(t *testing.T) {
	registry, _, _ := testRegistry(t)

	// Must not panic or create a record
	registry.Consume("deadbeefdeadbeefdeadbeefdeadbeef")
	assert.Equal(t, 0, registry.Len())
}

func TestSweepRemovesDeadLinksAndFiles(t *testing.T) {
	registry, clock, deleted := testRegistry(t)

	expired, err := registry.Issue(testFiles(), 5, time.Hour)
	require.NoError(t, err)
	alive, err := registry.Issue([]FileRef{{Nome: "doc.pdf", Caminho: "/tmp/uploads/ccc.pdf"}}, 5, 72*time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	removed := registry.Sweep()
	assert.Equal(t, 1, removed)
	assert.ElementsMatch(t, []string{"/tmp/uploads/aaa.pdf", "/tmp/uploads/bbb.xlsx"}, *deleted)

	// Swept link is gone for good
	result := registry.Validate(expired)
	assert.Equal(t, ReasonNotFound, result.Reason)

	// The live link is untouched
	assert.True(t, registry.Validate(alive).Valid)
	assert.Equal(t, 1, registry.Len())
}

func TestSweepIsIdempotent(t *testing.T) {
	registry, clock, deleted := testRegistry(t)

	_, err := registry.Issue(testFiles(), 5, time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	assert.Equal(t, 1, registry.Sweep())
	assert.Equal(t, 0, registry.Sweep())
	assert.Len(t, *deleted, 2, "files are deleted exactly once")
}

func TestSweepSurvivesDeletionFailures(t *testing.T) {
	clock := newTestClock()
	registry := NewRegistry(RegistryConfig{
		Clock:      clock.Now,
		RemoveFile: func(string) error { return fmt.Errorf("disk on fire") },
	})

	_, err := registry.Issue(testFiles(), 5, time.Hour)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	// Deletion failures are logged and skipped; the record still goes away
	assert.Equal(t, 1, registry.Sweep())
	assert.Equal(t, 0, registry.Len())
}

func TestExhaustedLinkIsSwept(t *testing.T) {
	registry, _, deleted := testRegistry(t)

	id, err := registry.Issue(testFiles(), 1, time.Hour)
	require.NoError(t, err)

	require.True(t, registry.Validate(id).Valid)
	registry.Consume(id)

	// Not yet deactivated by a failed validate, but already exhausted
	assert.Equal(t, 1, registry.Sweep())
	assert.Len(t, *deleted, 2)
}

func TestRandomIDsAreUniqueAndHex(t *testing.T) {
	registry := NewRegistry(RegistryConfig{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := registry.Issue(nil, 0, 0)
		require.NoError(t, err)
		require.Len(t, id, 32)
		require.Regexp(t, "^[0-9a-f]{32}$", id)
		assert.False(t, seen[id], "collision on %s", id)
		seen[id] = true
	}
}

func TestConcurrentAccess(t *testing.T) {
	registry, _, _ := testRegistry(t)

	id, err := registry.Issue(testFiles(), 1000, time.Hour)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if registry.Validate(id).Valid {
				registry.Consume(id)
			}
			registry.Sweep()
		}()
	}
	wg.Wait()

	result := registry.Validate(id)
	require.True(t, result.Valid)
	assert.Equal(t, 50, result.Link.Downloads)
}
