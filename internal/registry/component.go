package registry

import (
	"sort"
	"sync"
	"time"
)

// ComponentRegistry indexes the metadata of the components in a project and
// notifies watchers when it changes. The preview server keeps one refreshed
// by ComponentLoader.Scan for /components and reload targeting, and check
// builds one per run to find reference cycles. Renderers never use it.
type ComponentRegistry struct {
	components         map[string]*ComponentInfo
	mutex              sync.RWMutex
	watchers           []chan ComponentEvent
	dependencyAnalyzer *DependencyAnalyzer
}

// ComponentInfo holds metadata about a component template file
type ComponentInfo struct {
	Name         string    `json:"name" yaml:"name"`
	FilePath     string    `json:"filePath" yaml:"file_path"`
	Size         int64     `json:"size" yaml:"size"`
	LastMod      time.Time `json:"lastMod" yaml:"last_mod"`
	Hash         string    `json:"hash" yaml:"hash"`
	Valid        bool      `json:"valid" yaml:"valid"`
	Placeholders []string  `json:"placeholders" yaml:"placeholders"`
	Slots        []string  `json:"slots,omitempty" yaml:"slots,omitempty"`
	Dependencies []string  `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// ComponentEvent represents a change in the component registry
type ComponentEvent struct {
	Type      EventType
	Component *ComponentInfo
	Timestamp time.Time
}

// EventType represents the type of component event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the event name used in live-reload messages.
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// NewComponentRegistry creates a new component registry
func NewComponentRegistry() *ComponentRegistry {
	r := &ComponentRegistry{
		components: make(map[string]*ComponentInfo),
		watchers:   make([]chan ComponentEvent, 0),
	}
	r.dependencyAnalyzer = NewDependencyAnalyzer(r)
	return r
}

// Register adds or updates a component in the registry
func (r *ComponentRegistry) Register(component *ComponentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.components[component.Name]; exists {
		eventType = EventTypeUpdated
	}

	r.components[component.Name] = component

	r.notify(ComponentEvent{
		Type:      eventType,
		Component: component,
		Timestamp: time.Now(),
	})
}

// Get retrieves a component by name
func (r *ComponentRegistry) Get(name string) (*ComponentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	component, exists := r.components[name]
	return component, exists
}

// GetAll returns all registered components sorted by name
func (r *ComponentRegistry) GetAll() []*ComponentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*ComponentInfo, 0, len(r.components))
	for _, component := range r.components {
		result = append(result, component)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Remove removes a component from the registry
func (r *ComponentRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	component, exists := r.components[name]
	if !exists {
		return
	}

	delete(r.components, name)

	r.notify(ComponentEvent{
		Type:      EventTypeRemoved,
		Component: component,
		Timestamp: time.Now(),
	})
}

// notify must be called with the mutex held.
func (r *ComponentRegistry) notify(event ComponentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives component events
func (r *ComponentRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}

// GetDependents returns components that reference the given component
func (r *ComponentRegistry) GetDependents(componentName string) []*ComponentInfo {
	return r.dependencyAnalyzer.GetDependents(componentName)
}

// GetDependencyGraph returns the full dependency graph
func (r *ComponentRegistry) GetDependencyGraph() map[string][]string {
	return r.dependencyAnalyzer.GetDependencyGraph()
}

// DetectCircularDependencies returns every component reference cycle.
func (r *ComponentRegistry) DetectCircularDependencies() [][]string {
	return r.dependencyAnalyzer.DetectCircularDependencies()
}
