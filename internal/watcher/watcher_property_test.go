//go:build property

package watcher

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates batching of the debouncer.
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("one event per path, sorted by path", prop.ForAll(
		func(ids []int) bool {
			d := NewDebouncer(time.Hour)
			defer d.stop()

			unique := map[string]bool{}
			for i, id := range ids {
				path := filepath.Join("structures", fmt.Sprintf("p%d.json", id))
				unique[path] = true
				d.addEvent(ChangeEvent{Type: EventType(i % 4), Path: path})
			}
			d.flush()

			if len(ids) == 0 {
				return len(d.output) == 0
			}
			events := <-d.output
			if len(events) != len(unique) {
				return false
			}
			return sort.SliceIsSorted(events, func(i, j int) bool { return events[i].Path < events[j].Path })
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	properties.Property("last event for a path wins", prop.ForAll(
		func(types []int) bool {
			if len(types) == 0 {
				return true
			}
			d := NewDebouncer(time.Hour)
			defer d.stop()

			for _, typ := range types {
				d.addEvent(ChangeEvent{Type: EventType(typ), Path: "menu.json"})
			}
			d.flush()
			events := <-d.output
			return len(events) == 1 && events[0].Type == EventType(types[len(types)-1])
		},
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}

// TestFilterProperties validates the project file filters.
func TestFilterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4321)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("hidden directories are never reported", prop.ForAll(
		func(dir, name string) bool {
			path := filepath.Join("/site", "."+dir, name+".json")
			return !NoHiddenFilter(path)
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.Property("atomic save temp files are never reported", prop.ForAll(
		func(name string, n uint32) bool {
			path := filepath.Join("structures", fmt.Sprintf(".%s.json.%d.tmp", name, n))
			return !NoTempFilter(path)
		},
		gen.Identifier(),
		gen.UInt32(),
	))

	properties.Property("json documents pass the project filter", prop.ForAll(
		func(name string) bool {
			return ProjectFileFilter(filepath.Join("components", name+".json"))
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
