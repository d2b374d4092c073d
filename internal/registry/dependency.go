package registry

import (
	"sort"

	"github.com/conneroisu/quicksite/internal/nodepath"
	"github.com/conneroisu/quicksite/internal/structure"
)

// DependencyAnalyzer analyzes which components a template instantiates
type DependencyAnalyzer struct {
	registry *ComponentRegistry
}

// NewDependencyAnalyzer creates a new dependency analyzer
func NewDependencyAnalyzer(registry *ComponentRegistry) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		registry: registry,
	}
}

// AnalyzeTemplate returns the sorted names of the components referenced by
// a template or structure. Self references are kept so that a component
// that includes itself shows up as a cycle.
func AnalyzeTemplate(template any) []string {
	seen := make(map[string]bool)
	structure.Walk(template, func(_ nodepath.Path, node map[string]any) bool {
		if structure.KindOf(node) == structure.KindComponent {
			if name, ok := node[structure.KeyComponent].(string); ok && name != "" {
				seen[name] = true
			}
		}
		return true
	})

	deps := make([]string, 0, len(seen))
	for dep := range seen {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// GetDependents returns components that depend on the given component
func (da *DependencyAnalyzer) GetDependents(componentName string) []*ComponentInfo {
	var dependents []*ComponentInfo

	for _, component := range da.registry.GetAll() {
		for _, dep := range component.Dependencies {
			if dep == componentName {
				dependents = append(dependents, component)
				break
			}
		}
	}

	return dependents
}

// GetDependencyGraph returns the full dependency graph
func (da *DependencyAnalyzer) GetDependencyGraph() map[string][]string {
	da.registry.mutex.RLock()
	defer da.registry.mutex.RUnlock()

	graph := make(map[string][]string, len(da.registry.components))
	for name, component := range da.registry.components {
		graph[name] = make([]string, len(component.Dependencies))
		copy(graph[name], component.Dependencies)
	}

	return graph
}

// DetectCircularDependencies detects circular dependencies in the graph.
// Components are visited in name order so results are deterministic.
func (da *DependencyAnalyzer) DetectCircularDependencies() [][]string {
	var cycles [][]string
	graph := da.GetDependencyGraph()

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, component := range names {
		if !visited[component] {
			if cycle := detectCycleDFS(component, graph, visited, recStack, nil); cycle != nil {
				cycles = append(cycles, cycle)
			}
		}
	}

	return cycles
}

// detectCycleDFS performs DFS to detect cycles
func detectCycleDFS(component string, graph map[string][]string, visited, recStack map[string]bool, path []string) []string {
	visited[component] = true
	recStack[component] = true
	path = append(path, component)

	for _, dep := range graph[component] {
		if !visited[dep] {
			if cycle := detectCycleDFS(dep, graph, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[dep] {
			cycleStart := -1
			for i, p := range path {
				if p == dep {
					cycleStart = i
					break
				}
			}
			if cycleStart >= 0 {
				cycle := make([]string, len(path)-cycleStart+1)
				copy(cycle, path[cycleStart:])
				cycle[len(cycle)-1] = dep
				return cycle
			}
		}
	}

	recStack[component] = false
	return nil
}
