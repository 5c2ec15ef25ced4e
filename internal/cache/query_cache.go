package cache

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/models"
)

const (
	taskListPrefix   = "tasks:list:"
	taskDetailPrefix = "tasks:detail:"
)

// TaskPage is the unit a list entry holds: one filtered result page plus the
// matching total.
type TaskPage struct {
	Tasks []models.Task `json:"tasks"`
	Total int64         `json:"total"`
}

type listEntry struct {
	page      TaskPage
	fetchedAt time.Time
	version   uint64
	stale     bool
}

type detailEntry struct {
	task      models.Task
	fetchedAt time.Time
}

// ListSnapshot captures one list entry verbatim so an optimistic rewrite can
// be rolled back without a partial merge.
type ListSnapshot struct {
	Signature string
	Page      TaskPage
	Version   uint64
}

// FetchToken ties an in-flight store fetch to the cache state it was issued
// against: the entry's version and the cache-wide invalidation epoch. A
// fetch that resolves after either moved is discarded.
type FetchToken struct {
	signature string
	version   uint64
	epoch     uint64
}

type QueryCacheConfig struct {
	ListTTL   time.Duration
	DetailTTL time.Duration
}

func DefaultQueryCacheConfig() *QueryCacheConfig {
	return &QueryCacheConfig{
		ListTTL:   5 * time.Minute,
		DetailTTL: 30 * time.Minute,
	}
}

// QueryCache keeps differently-filtered task views consistent under
// concurrent mutation. List entries are keyed by filter signature, detail
// entries by task id; the two keyspaces invalidate independently.
//
// The optimistic state (versions, snapshots, the mutation sequence) lives
// in-process; the optional remote tier only mirrors confirmed pages so a
// fresh process can warm from it.
type QueryCache struct {
	mu      sync.RWMutex
	lists   map[string]*listEntry
	details map[uuid.UUID]*detailEntry

	listTTL   time.Duration
	detailTTL time.Duration

	// highest mutation sequence whose optimistic rewrite has been applied
	lastSeq uint64
	// bumped on every InvalidateLists; fetches begun under an older epoch
	// are discarded even when their entry did not exist yet
	epoch uint64

	remote Cache
	now    func() time.Time
}

func NewQueryCache(remote Cache, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = DefaultQueryCacheConfig()
	}
	return &QueryCache{
		lists:     make(map[string]*listEntry),
		details:   make(map[uuid.UUID]*detailEntry),
		listTTL:   config.ListTTL,
		detailTTL: config.DetailTTL,
		remote:    remote,
		now:       time.Now,
	}
}

// SetClock overrides the cache's time source, for deterministic tests.
func (qc *QueryCache) SetClock(now func() time.Time) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.now = now
}

// GetList returns the cached page for a signature when the entry is still
// fresh. On a local miss it falls through to the remote tier.
func (qc *QueryCache) GetList(signature string) (TaskPage, bool) {
	qc.mu.RLock()
	entry, ok := qc.lists[signature]
	if ok && !entry.stale && qc.now().Before(entry.fetchedAt.Add(qc.listTTL)) {
		page := clonePage(entry.page)
		qc.mu.RUnlock()
		return page, true
	}
	qc.mu.RUnlock()

	if qc.remote == nil {
		return TaskPage{}, false
	}

	var page TaskPage
	if err := qc.remote.Get(taskListPrefix+signature, &page); err != nil {
		return TaskPage{}, false
	}

	qc.mu.Lock()
	qc.storeListLocked(signature, page)
	qc.mu.Unlock()
	return clonePage(page), true
}

// BeginFetch records the cache state a store fetch was issued against.
func (qc *QueryCache) BeginFetch(signature string) FetchToken {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	token := FetchToken{signature: signature, epoch: qc.epoch}
	if entry, ok := qc.lists[signature]; ok {
		token.version = entry.version
	}
	return token
}

// CompleteFetch populates a list entry with a fetched page, unless the cache
// changed while the fetch was in flight. A stale response never clobbers a
// resolved mutation's state: an entry rewritten since BeginFetch fails the
// version check, and an invalidation since BeginFetch fails the epoch check
// whether or not the entry existed then. The entry stays stale and the next
// read refetches.
func (qc *QueryCache) CompleteFetch(token FetchToken, page TaskPage) bool {
	qc.mu.Lock()
	if token.epoch != qc.epoch {
		qc.mu.Unlock()
		return false
	}
	if entry, ok := qc.lists[token.signature]; ok && entry.version != token.version {
		qc.mu.Unlock()
		return false
	}
	qc.storeListLocked(token.signature, page)
	qc.mu.Unlock()

	if qc.remote != nil {
		qc.remote.Set(taskListPrefix+token.signature, page, qc.listTTL)
	}
	return true
}

func (qc *QueryCache) storeListLocked(signature string, page TaskPage) {
	entry, ok := qc.lists[signature]
	if !ok {
		entry = &listEntry{}
		qc.lists[signature] = entry
	}
	entry.page = clonePage(page)
	entry.fetchedAt = qc.now()
	entry.version++
	entry.stale = false
}

func (qc *QueryCache) GetDetail(id uuid.UUID) (models.Task, bool) {
	qc.mu.RLock()
	entry, ok := qc.details[id]
	if ok && qc.now().Before(entry.fetchedAt.Add(qc.detailTTL)) {
		task := entry.task
		qc.mu.RUnlock()
		return task, true
	}
	qc.mu.RUnlock()

	if qc.remote == nil {
		return models.Task{}, false
	}

	var task models.Task
	if err := qc.remote.Get(taskDetailPrefix+id.String(), &task); err != nil {
		return models.Task{}, false
	}

	qc.mu.Lock()
	qc.details[id] = &detailEntry{task: task, fetchedAt: qc.now()}
	qc.mu.Unlock()
	return task, true
}

func (qc *QueryCache) PutDetail(task models.Task) {
	qc.mu.Lock()
	qc.details[task.ID] = &detailEntry{task: task, fetchedAt: qc.now()}
	qc.mu.Unlock()

	if qc.remote != nil {
		qc.remote.Set(taskDetailPrefix+task.ID.String(), task, qc.detailTTL)
	}
}

func (qc *QueryCache) DeleteDetail(id uuid.UUID) {
	qc.mu.Lock()
	delete(qc.details, id)
	qc.mu.Unlock()

	if qc.remote != nil {
		qc.remote.Delete(taskDetailPrefix + id.String())
	}
}

// InvalidateLists marks every list entry stale and advances the invalidation
// epoch, so fetches already in flight resolve as discards. A changed record
// may move in or out of any filtered view, so invalidation is never
// targeted. Invalidating an already-stale entry is idempotent for readers;
// no fetch is triggered here.
func (qc *QueryCache) InvalidateLists() {
	qc.mu.Lock()
	qc.epoch++
	for _, entry := range qc.lists {
		entry.stale = true
		entry.version++
	}
	qc.mu.Unlock()

	if qc.remote != nil {
		qc.remote.DeletePattern(taskListPrefix + "*")
	}
}

// SnapshotLists copies every currently-cached list entry, fresh or stale.
func (qc *QueryCache) SnapshotLists() []ListSnapshot {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	snaps := make([]ListSnapshot, 0, len(qc.lists))
	for sig, entry := range qc.lists {
		snaps = append(snaps, ListSnapshot{
			Signature: sig,
			Page:      clonePage(entry.page),
			Version:   entry.version,
		})
	}
	return snaps
}

// RewriteTask applies an optimistic task state to every list entry holding
// that task, bumping each entry's version. seq is the mutation's sequence
// number; the cache remembers the highest one applied so rollbacks of
// superseded mutations can be ignored.
func (qc *QueryCache) RewriteTask(seq uint64, task models.Task) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	for _, entry := range qc.lists {
		for i := range entry.page.Tasks {
			if entry.page.Tasks[i].ID == task.ID {
				entry.page.Tasks[i] = task
				entry.version++
				break
			}
		}
	}
	if seq > qc.lastSeq {
		qc.lastSeq = seq
	}
}

// RestoreSnapshots puts every snapshot back verbatim, undoing an optimistic
// rewrite. If a newer mutation has rewritten the cache since seq, the
// restore is skipped entirely: the cache must reflect the most recently
// initiated mutation, and the final invalidation corrects any divergence.
func (qc *QueryCache) RestoreSnapshots(seq uint64, snaps []ListSnapshot) bool {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if seq != qc.lastSeq {
		return false
	}
	for _, snap := range snaps {
		entry, ok := qc.lists[snap.Signature]
		if !ok {
			continue
		}
		entry.page = clonePage(snap.Page)
		entry.version++
	}
	return true
}

func (qc *QueryCache) Stats() map[string]interface{} {
	qc.mu.RLock()
	stats := map[string]interface{}{
		"list_entries":   len(qc.lists),
		"detail_entries": len(qc.details),
	}
	qc.mu.RUnlock()

	if qc.remote != nil {
		stats["remote"] = qc.remote.Stats()
	}
	return stats
}

func clonePage(page TaskPage) TaskPage {
	tasks := make([]models.Task, len(page.Tasks))
	copy(tasks, page.Tasks)
	return TaskPage{Tasks: tasks, Total: page.Total}
}
