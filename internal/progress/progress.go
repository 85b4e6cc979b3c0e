package progress

import "sync"

// Stage names one phase of a conversion job, in the order jobs move through
// them.
type Stage string

const (
	StageStarting   Stage = "starting"
	StageSearching  Stage = "searching"
	StageRetrieving Stage = "retrieving"
	StageQuerying   Stage = "querying"
	StageConverting Stage = "converting"
	StageComplete   Stage = "complete"
)

// Update is one progress event. Progress runs 0-100 and never decreases
// within a job.
type Update struct {
	Stage         Stage  `json:"stage"`
	Message       string `json:"message"`
	Progress      int    `json:"progress"`
	CurrentRecord int    `json:"currentRecord,omitempty"`
	TotalRecords  int    `json:"totalRecords,omitempty"`
	FilesCreated  int    `json:"filesCreated,omitempty"`
}

const channelBuffer = 64

// Registry routes updates to consumers by correlation id. It is explicitly
// owned and injected: entries are added when a consumer registers and removed
// when the job completes or the consumer disconnects. Publishing to an id
// with no consumer silently drops the update.
type Registry struct {
	mu       sync.Mutex
	channels map[string]chan Update
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]chan Update)}
}

// Register opens an update channel for a correlation id, replacing any
// previous consumer for the same id.
func (r *Registry) Register(id string) <-chan Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.channels[id]; ok {
		close(old)
	}
	ch := make(chan Update, channelBuffer)
	r.channels[id] = ch
	return ch
}

// Unregister closes and removes the channel for a correlation id. Safe to
// call for ids that were never registered.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[id]; ok {
		close(ch)
		delete(r.channels, id)
	}
}

// Publish delivers an update to the consumer registered for id. Delivery is
// best-effort: no consumer, or a consumer that stopped draining, drops the
// update rather than blocking the conversion. The send happens under the
// lock so an Unregister racing with a publish cannot close the channel
// mid-send; the send is non-blocking, so the lock is never held long.
func (r *Registry) Publish(id string, update Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return
	}
	select {
	case ch <- update:
	default:
	}
}

// Reporter publishes one job's updates with a monotonic progress guard: a
// regressing percentage is clamped to the highest value already reported.
type Reporter struct {
	registry *Registry
	id       string
	last     int
}

// NewReporter binds a reporter to one correlation id. A nil registry or an
// empty id yields a reporter that clamps but publishes nowhere.
func NewReporter(registry *Registry, id string) *Reporter {
	return &Reporter{registry: registry, id: id}
}

func (r *Reporter) Report(update Update) {
	if update.Progress < r.last {
		update.Progress = r.last
	}
	if update.Progress > 100 {
		update.Progress = 100
	}
	r.last = update.Progress
	if r.registry == nil || r.id == "" {
		return
	}
	r.registry.Publish(r.id, update)
}
