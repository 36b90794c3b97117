package manifest

import (
	"sort"
	"sync"
)

// Store owns the mapping from project root to that project's latest
// snapshot. Add and remove are driven entirely by manifest-change events;
// the snapshots themselves are never mutated here.
//
// The host delivers events on a single logical thread, but the CLI and TUI
// surfaces read concurrently, so access is guarded by a RWMutex.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]*Snapshot),
	}
}

// Upsert installs or replaces the snapshot for its project root.
func (s *Store) Upsert(snap *Snapshot) {
	if snap == nil || snap.ProjectRoot == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ProjectRoot] = snap
}

// Remove discards the snapshot for projectRoot, if present.
func (s *Store) Remove(projectRoot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, projectRoot)
}

// Get returns the snapshot for projectRoot.
func (s *Store) Get(projectRoot string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[projectRoot]
	return snap, ok
}

// Roots returns the tracked project roots, sorted for deterministic output.
func (s *Store) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := make([]string, 0, len(s.snapshots))
	for root := range s.snapshots {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// Count returns the number of tracked projects.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// ApplyChange applies one manifest-change batch and reports whether any
// entry was added, replaced, or removed.
func (s *Store) ApplyChange(ev ChangeEvent) bool {
	changed := false

	for _, added := range ev.Added {
		if added.ProjectRoot == "" {
			continue
		}
		s.Upsert(&Snapshot{
			ProjectRoot:  added.ProjectRoot,
			ProjectName:  added.ProjectName,
			GraphMetaMap: added.GraphMetaMap,
		})
		changed = true
	}

	for _, removed := range ev.Removed {
		if removed.ProjectRoot == "" {
			continue
		}
		s.mu.Lock()
		if _, ok := s.snapshots[removed.ProjectRoot]; ok {
			delete(s.snapshots, removed.ProjectRoot)
			changed = true
		}
		s.mu.Unlock()
	}

	return changed
}
