package server

import (
	"context"
	"sort"

	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/registry"
)

// refreshComponents rescans the components directory into the registry.
func (s *PreviewServer) refreshComponents() error {
	return s.project.Components(s.logger).Scan(s.components)
}

// watchComponents logs registry changes until ctx is done.
func (s *PreviewServer) watchComponents(ctx context.Context) {
	events := s.components.Watch()
	go func() {
		defer s.components.UnWatch(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				s.logger.Debug(ctx, "Component "+ev.Type.String(), "component", ev.Component.Name)
			}
		}
	}()
}

// affectedBy returns the structures that render any of the changed
// components, directly or through other components. Components come first,
// sorted, followed by the pages, menu and footer that use them.
func (s *PreviewServer) affectedBy(ctx context.Context, changed []string) []project.Ref {
	affected := make(map[string]bool)
	queue := append([]string(nil), changed...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if affected[name] {
			continue
		}
		affected[name] = true
		for _, dep := range s.components.GetDependents(name) {
			queue = append(queue, dep.Name)
		}
	}

	names := make([]string, 0, len(affected))
	for name := range affected {
		names = append(names, name)
	}
	sort.Strings(names)
	refs := make([]project.Ref, 0, len(names))
	for _, name := range names {
		refs = append(refs, project.Component(name))
	}

	structures, err := s.project.Refs()
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to list structures")
		return refs
	}
	for _, ref := range structures {
		doc, err := s.project.Load(ref)
		if err != nil {
			continue
		}
		for _, name := range registry.AnalyzeTemplate(doc) {
			if affected[name] {
				refs = append(refs, ref)
				break
			}
		}
	}
	return refs
}
