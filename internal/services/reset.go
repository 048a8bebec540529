package services

import (
	"errors"
	"fmt"
	"log"

	"daya/internal/habits"
	"daya/internal/kv"
)

// PaathPrefix namespaces every key of the reading habit.
const PaathPrefix = "paath_"

// ErrSharedUnavailable is returned by ResetAll when the shared store cannot
// be reached. Nothing is removed in that case.
var ErrSharedUnavailable = errors.New("shared store unavailable")

type ResetService struct {
	store    kv.Accessor
	shared   kv.Store
	progress *ProgressService
}

func NewResetService(store, shared kv.Store, progress *ProgressService) *ResetService {
	if shared == nil {
		shared = kv.Unavailable{}
	}
	return &ResetService{store: kv.Access(store), shared: shared, progress: progress}
}

// Prefixes lists the key namespaces a reset clears: every registered habit,
// hidden ones included, and the reading habit.
func (rs *ResetService) Prefixes() []string {
	var prefixes []string
	for _, h := range rs.progress.Habits().List() {
		if h.ID == habits.SehajPaath {
			continue
		}
		prefixes = append(prefixes, rs.progress.Binary(h.ID).KeyPrefix())
	}
	return append(prefixes, PaathPrefix)
}

// ResetAll removes every habit record and restarts reading from today.
// Settings, quotes and the habit list are kept. It returns the number of keys
// removed from the app's store.
//
// The shared store is checked first: a reset the widget would not see is
// refused. Records left in the shared store by earlier missed mirror writes
// are removed as well.
func (rs *ResetService) ResetAll() (int, error) {
	if _, err := rs.shared.Keys(PaathPrefix); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSharedUnavailable, err)
	}

	removed := 0
	for _, prefix := range rs.Prefixes() {
		for _, key := range rs.store.Keys(prefix) {
			rs.store.Remove(key)
			removed++
		}

		stale, err := rs.shared.Keys(prefix)
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrSharedUnavailable, err)
		}
		for _, key := range stale {
			if err := rs.shared.Remove(key); err != nil {
				return removed, fmt.Errorf("%w: remove %s: %v", ErrSharedUnavailable, key, err)
			}
		}
	}

	rs.progress.Paath().ResetStartDate()
	rs.progress.changed()
	log.Printf("🧹 reset removed %d records", removed)
	return removed, nil
}
