package testutil

import "sync"

// ProgressUpdate is one Update callback.
type ProgressUpdate struct {
	Transferred int64
	Total       int64
}

// ProgressRecorder is an objtypes.ProgressTracker that keeps every callback.
// It is safe for concurrent use.
type ProgressRecorder struct {
	mu          sync.Mutex
	updates     []ProgressUpdate
	completions int
	errs        []error
}

func (p *ProgressRecorder) Update(bytesTransferred, totalBytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, ProgressUpdate{Transferred: bytesTransferred, Total: totalBytes})
}

func (p *ProgressRecorder) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completions++
}

func (p *ProgressRecorder) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

// Updates returns a copy of the recorded updates in call order.
func (p *ProgressRecorder) Updates() []ProgressUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProgressUpdate(nil), p.updates...)
}

// Last returns the most recent update, or the zero value.
func (p *ProgressRecorder) Last() ProgressUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.updates) == 0 {
		return ProgressUpdate{}
	}
	return p.updates[len(p.updates)-1]
}

func (p *ProgressRecorder) Completed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completions > 0
}

// Errors returns every error passed to Error.
func (p *ProgressRecorder) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.errs...)
}
