// Package file provides a file-based persistence implementation for
// development and tests.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pulsedash/automation/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
// One JSON document per definition and per run; continuations and dedup
// markers are small files scanned on demand. A single mutex serializes
// writers, which is plenty for the dev/test workloads this backend serves.
type Persistence struct {
	root          string
	mu            sync.Mutex
	definitions   *DefinitionRepository
	runs          *RunRepository
	continuations *ContinuationQueue
	dedup         *EventDedup
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.definitions = &DefinitionRepository{persistence: p}
	p.runs = &RunRepository{persistence: p}
	p.continuations = &ContinuationQueue{persistence: p}
	p.dedup = &EventDedup{persistence: p}

	return p
}

func (p *Persistence) Definitions() persistence.DefinitionRepository {
	return p.definitions
}

func (p *Persistence) Runs() persistence.RunRepository {
	return p.runs
}

func (p *Persistence) Continuations() persistence.ContinuationQueue {
	return p.continuations
}

func (p *Persistence) EventDedup() persistence.EventDedup {
	return p.dedup
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to clean up for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) dir(parts ...string) (string, error) {
	dir := filepath.Join(append([]string{p.root}, parts...)...)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}
