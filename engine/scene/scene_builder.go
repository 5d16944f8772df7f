package scene

import (
	"github.com/Carmen-Shannon/oxy-lines/engine/lines"
	"github.com/Carmen-Shannon/oxy-lines/engine/renderer/bind_group_provider"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithRecords registers initial draw records in order.
//
// Parameters:
//   - records: the records to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRecords(records ...lines.LineDrawRecord) SceneBuilderOption {
	return func(s *scene) {
		for _, r := range records {
			s.add(&entry{record: r})
		}
	}
}

// WithBindGroups binds initialized caller groups for every record of the scene, after the camera.
//
// Parameters:
//   - providers: the bind group providers
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBindGroups(providers ...bind_group_provider.BindGroupProvider) SceneBuilderOption {
	return func(s *scene) {
		s.bindGroups = append(s.bindGroups, providers...)
	}
}
