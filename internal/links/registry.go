package links

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"nexconsult/internal/logger"
	"nexconsult/internal/metrics"
)

const (
	// DefaultTTL is how long a link stays downloadable.
	DefaultTTL = 48 * time.Hour

	// DefaultMaxDownloads is the per-link download budget.
	DefaultMaxDownloads = 5

	idBytes = 16 // 32 hex chars
)

// Validation failure reasons, in the priority order Validate checks them.
const (
	ReasonNotFound     = "not found"
	ReasonDeactivated  = "deactivated"
	ReasonExpired      = "expired"
	ReasonLimitReached = "download limit reached"
)

// FileRef points at one stored upload owned by a link.
type FileRef struct {
	Nome    string `json:"nome"`    // original filename
	Tamanho int64  `json:"tamanho"` // size in bytes
	Caminho string `json:"-"`       // storage path, never exposed
}

// TempLink is one registry record. Once expired, exhausted or deactivated
// a link is permanently dead; Ativo never flips back to true.
type TempLink struct {
	ID           string
	Arquivos     []FileRef
	CriadoEm     time.Time
	ExpiraEm     time.Time
	MaxDownloads int
	Downloads    int
	Ativo        bool
}

// ValidationResult is the structured outcome of Validate. Link-state
// problems are results, not errors.
type ValidationResult struct {
	Valid  bool
	Reason string
	Link   TempLink // snapshot, only meaningful when Valid
}

// Registry is the in-memory temporary link store. Best effort and process
// local: records do not survive a restart. All four operations run under
// one mutex.
type Registry struct {
	mu    sync.Mutex
	links map[string]*TempLink

	now        func() time.Time
	newID      func() (string, error)
	removeFile func(string) error
}

// RegistryConfig holds test seams for the registry. Zero values fall back
// to the system clock, crypto/rand identifiers and os.Remove.
type RegistryConfig struct {
	Clock      func() time.Time
	IDSource   func() (string, error)
	RemoveFile func(string) error
}

// NewRegistry creates an empty link registry.
func NewRegistry(config RegistryConfig) *Registry {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.IDSource == nil {
		config.IDSource = randomID
	}
	if config.RemoveFile == nil {
		config.RemoveFile = os.Remove
	}
	return &Registry{
		links:      make(map[string]*TempLink),
		now:        config.Clock,
		newID:      config.IDSource,
		removeFile: config.RemoveFile,
	}
}

// randomID returns a 32-char hex token from crypto-strength randomness.
func randomID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Issue stores a new active link over the given files and returns its
// identifier. A non-positive maxDownloads or ttl selects the default;
// already-expired links cannot be issued.
func (r *Registry) Issue(files []FileRef, maxDownloads int, ttl time.Duration) (string, error) {
	if maxDownloads <= 0 {
		maxDownloads = DefaultMaxDownloads
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	id, err := r.newID()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.links[id] = &TempLink{
		ID:           id,
		Arquivos:     files,
		CriadoEm:     now,
		ExpiraEm:     now.Add(ttl),
		MaxDownloads: maxDownloads,
		Ativo:        true,
	}
	metrics.SetActiveLinks(len(r.links))

	logger.Info("Temporary link issued", "link_id", id, "files", len(files), "expires_at", now.Add(ttl))
	return id, nil
}

// Validate checks whether a link is usable. Expiry and exhaustion flip the
// link inactive as a side effect, atomically with the check. On success it
// returns a snapshot of the record.
func (r *Registry) Validate(id string) ValidationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok {
		return ValidationResult{Reason: ReasonNotFound}
	}
	if !link.Ativo {
		return ValidationResult{Reason: ReasonDeactivated}
	}
	if r.now().After(link.ExpiraEm) {
		link.Ativo = false
		return ValidationResult{Reason: ReasonExpired}
	}
	if link.Downloads >= link.MaxDownloads {
		link.Ativo = false
		return ValidationResult{Reason: ReasonLimitReached}
	}

	return ValidationResult{Valid: true, Link: *link}
}

// Consume counts one download against the link. It is a bare counter
// increment: callers validate first, and a missing id is a silent no-op.
func (r *Registry) Consume(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if link, ok := r.links[id]; ok {
		link.Downloads++
	}
}

// Sweep evicts every expired or inactive record, removing its backing
// files from storage. File deletion failures are logged and skipped so one
// bad file never aborts the pass. Returns the number of evicted links.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, link := range r.links {
		dead := !link.Ativo || now.After(link.ExpiraEm) || link.Downloads >= link.MaxDownloads
		if !dead {
			continue
		}
		for _, file := range link.Arquivos {
			if err := r.removeFile(file.Caminho); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to delete stored file during sweep", "path", file.Caminho, "error", err)
			}
		}
		delete(r.links, id)
		removed++
	}
	metrics.SetActiveLinks(len(r.links))

	if removed > 0 {
		logger.Info("Link sweep complete", "removed", removed, "remaining", len(r.links))
	}
	return removed
}

// Len reports the number of records currently held, dead or alive.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}

// StartSweeper runs Sweep on the given interval until the returned stop
// function is called. The sweep runs on its own goroutine and never blocks
// request handling.
func (r *Registry) StartSweeper(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
