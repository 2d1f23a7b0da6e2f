package importer

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// Progress is the shared, lock-guarded state of the current or last import
// run. The importer writes it; status handlers read snapshots.
type Progress struct {
	mu sync.RWMutex
	p  models.ImportProgress
}

// NewProgress returns an idle progress handle.
func NewProgress() *Progress {
	return &Progress{p: models.ImportProgress{State: models.ImportIdle}}
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() models.ImportProgress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.p
}

func (p *Progress) begin(category models.Category, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.p = models.ImportProgress{
		Running:      true,
		State:        models.ImportRunning,
		Category:     category,
		CurrentLabel: "fetching brands",
		StartedAt:    &now,
	}
}

func (p *Progress) setTotal(n int) {
	p.mu.Lock()
	p.p.TotalCount = n
	p.mu.Unlock()
}

func (p *Progress) setIndex(i int) {
	p.mu.Lock()
	p.p.CurrentIndex = i
	p.mu.Unlock()
}

func (p *Progress) setLabel(label string) {
	p.mu.Lock()
	p.p.CurrentLabel = label
	p.mu.Unlock()
}

func (p *Progress) addInserted() {
	p.mu.Lock()
	p.p.Inserted++
	p.mu.Unlock()
}

func (p *Progress) finish(state models.ImportState, err error, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.p.Running = false
	p.p.State = state
	p.p.FinishedAt = &now
	if err != nil {
		p.p.LastError = err.Error()
	}
	switch state {
	case models.ImportCompleted:
		p.p.CurrentLabel = "completed"
	case models.ImportCancelled:
		p.p.CurrentLabel = "cancelled"
	case models.ImportFailed:
		p.p.CurrentLabel = "failed"
	}
}
