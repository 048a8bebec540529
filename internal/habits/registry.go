// Package habits keeps the ordered list of habits the user tracks.
package habits

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"daya/internal/kv"

	"github.com/google/uuid"
)

// ConfigKey is where the registry is persisted as a JSON blob.
const ConfigKey = "habit_config"

// Reserved system habit ids.
const (
	MorningSimran = "morning_simran"
	SehajPaath    = "sehaj_paath"
)

var (
	// ErrNotFound is returned when no habit has the requested id.
	ErrNotFound = errors.New("habit not found")
	// ErrInvalidName is returned for an empty habit name.
	ErrInvalidName = errors.New("habit name is required")
)

// Habit is one entry of the registry.
type Habit struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	IsVisible bool   `json:"isVisible"`
	IsSystem  bool   `json:"isSystem"`
}

// Title is the habit's display name with its emoji, if any.
func (h Habit) Title() string {
	if h.Emoji == "" {
		return h.Name
	}
	return h.Emoji + " " + h.Name
}

// Defaults returns the two system habits in their default order.
func Defaults() []Habit {
	return []Habit{
		{ID: MorningSimran, Name: "Morning Simran", Emoji: "🏆", IsVisible: true, IsSystem: true},
		{ID: SehajPaath, Name: "Sehaj Paath", Emoji: "📖", IsVisible: true, IsSystem: true},
	}
}

// Registry is the ordered habit list, persisted after every change.
type Registry struct {
	mu     sync.Mutex
	store  kv.Accessor
	habits []Habit
	newID  func() string
}

// NewRegistry loads the registry from store, seeding the defaults when none
// is stored or the stored blob cannot be decoded.
func NewRegistry(store kv.Store) *Registry {
	r := &Registry{store: kv.Access(store), newID: uuid.NewString}
	r.Load()
	return r
}

// Load re-reads the registry from the store.
func (r *Registry) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if raw, ok := r.store.Bytes(ConfigKey); ok {
		var decoded []Habit
		if err := json.Unmarshal(raw, &decoded); err == nil {
			r.habits = decoded
			return
		}
	}

	r.habits = Defaults()
	r.save()
}

func (r *Registry) save() {
	encoded, err := json.Marshal(r.habits)
	if err != nil {
		return
	}
	r.store.Set(ConfigKey, kv.Bytes(encoded))
}

// List returns every habit in order.
func (r *Registry) List() []Habit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Habit(nil), r.habits...)
}

// Visible returns the visible habits in order.
func (r *Registry) Visible() []Habit {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Habit
	for _, h := range r.habits {
		if h.IsVisible {
			out = append(out, h)
		}
	}
	return out
}

// Custom returns the visible user-created habits in order.
func (r *Registry) Custom() []Habit {
	var out []Habit
	for _, h := range r.Visible() {
		if !h.IsSystem {
			out = append(out, h)
		}
	}
	return out
}

// Get returns the habit with id.
func (r *Registry) Get(id string) (Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(id); i >= 0 {
		return r.habits[i], nil
	}
	return Habit{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Find resolves a habit by id or, case-insensitively, by name.
func (r *Registry) Find(ref string) (Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if i := r.index(ref); i >= 0 {
		return r.habits[i], nil
	}
	for _, h := range r.habits {
		if strings.EqualFold(h.Name, ref) {
			return h, nil
		}
	}
	return Habit{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// IsVisible reports whether id exists and is visible.
func (r *Registry) IsVisible(id string) bool {
	h, err := r.Get(id)
	return err == nil && h.IsVisible
}

// Add appends a visible user habit with a fresh id.
func (r *Registry) Add(name, emoji string) (Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Habit{}, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h := Habit{ID: r.newID(), Name: name, Emoji: strings.TrimSpace(emoji), IsVisible: true}
	r.habits = append(r.habits, h)
	r.save()
	return h, nil
}

// Move relocates the habit at index from so that it ends up at index to.
// Out-of-range indexes are clamped.
func (r *Registry) Move(from, to int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from < 0 || from >= len(r.habits) {
		return
	}
	to = min(max(to, 0), len(r.habits)-1)
	if from == to {
		return
	}

	h := r.habits[from]
	rest := append(r.habits[:from:from], r.habits[from+1:]...)
	r.habits = append(rest[:to:to], append([]Habit{h}, rest[to:]...)...)
	r.save()
}

// ToggleVisibility flips the visibility of id.
func (r *Registry) ToggleVisibility(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.habits[i].IsVisible = !r.habits[i].IsVisible
	r.save()
	return nil
}

// Delete removes a user habit. Deleting a system habit or an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 || r.habits[i].IsSystem {
		return
	}
	r.habits = append(r.habits[:i], r.habits[i+1:]...)
	r.save()
}

func (r *Registry) index(id string) int {
	for i, h := range r.habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
