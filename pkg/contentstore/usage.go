package contentstore

import (
	"context"
	"fmt"
)

// Scanner computes cross-content usage statistics for a library by scanning
// every stored content record. No incremental index is maintained, so each
// query costs one metadata load per stored content item; callers needing
// frequent usage queries should cache results externally.
type Scanner struct {
	repository Repository
	deps       DependencyChecker
}

// NewScanner creates a usage scanner over the given repository. The
// dependency checker classifies non-main references; a nil checker counts
// main-library matches only.
func NewScanner(repository Repository, deps DependencyChecker) *Scanner {
	return &Scanner{repository: repository, deps: deps}
}

// Usage counts how many content items reference machineName, split by role.
// A content item whose mainLibrary equals machineName counts as a main
// usage; otherwise one the dependency checker matches counts as a
// dependency usage. Items matching neither are not counted.
func (s *Scanner) Usage(ctx context.Context, machineName string) (UsageStats, error) {
	var stats UsageStats

	ids, err := s.repository.ListIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list content ids: %w", err)
	}

	for _, id := range ids {
		metadata, err := s.repository.GetMetadata(ctx, id)
		if err != nil {
			return stats, &ContentError{ContentID: id, Op: "get_metadata", Err: err}
		}
		if metadata == nil {
			continue
		}
		switch {
		case metadata.MainLibrary() == machineName:
			stats.AsMainLibrary++
		case s.deps != nil && s.deps.HasDependencyOn(metadata, machineName):
			stats.AsDependency++
		}
	}

	return stats, nil
}

// LibraryDependencyChecker inspects the dependency lists conventionally
// embedded in content metadata (preloadedDependencies, dynamicDependencies,
// editorDependencies), each a list of objects carrying a machineName field.
// It serves as the default checker when the content-authoring system does
// not supply its own.
type LibraryDependencyChecker struct{}

// NewLibraryDependencyChecker creates the metadata-embedded dependency
// checker.
func NewLibraryDependencyChecker() LibraryDependencyChecker {
	return LibraryDependencyChecker{}
}

var dependencyListFields = []string{
	"preloadedDependencies",
	"dynamicDependencies",
	"editorDependencies",
}

func (LibraryDependencyChecker) HasDependencyOn(metadata Document, machineName string) bool {
	for _, field := range dependencyListFields {
		list, ok := metadata[field].([]any)
		if !ok {
			continue
		}
		for _, entry := range list {
			dep, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if name, _ := dep["machineName"].(string); name == machineName {
				return true
			}
		}
	}
	return false
}
