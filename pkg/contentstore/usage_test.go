package contentstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearntech/contentstore/pkg/contentstore"
	memoryrepo "github.com/openlearntech/contentstore/pkg/contentstore/repo/memory"
)

func TestScannerUsage(t *testing.T) {
	ctx := context.Background()
	repo := memoryrepo.New()

	// One main-library user, one dependency-only user, one unrelated.
	fixtures := []contentstore.Document{
		{
			"mainLibrary": "H5P.Image",
			"preloadedDependencies": []any{
				map[string]any{"machineName": "H5P.Image"},
			},
		},
		{
			"mainLibrary": "H5P.CoursePresentation",
			"preloadedDependencies": []any{
				map[string]any{"machineName": "H5P.Image"},
				map[string]any{"machineName": "H5P.Text"},
			},
		},
		{
			"mainLibrary": "H5P.Blanks",
			"preloadedDependencies": []any{
				map[string]any{"machineName": "H5P.Text"},
			},
		},
	}
	for _, metadata := range fixtures {
		_, err := repo.Upsert(ctx, nil, metadata, contentstore.Document{})
		require.NoError(t, err)
	}

	scanner := contentstore.NewScanner(repo, contentstore.NewLibraryDependencyChecker())

	stats, err := scanner.Usage(ctx, "H5P.Image")
	require.NoError(t, err)
	assert.Equal(t, contentstore.UsageStats{AsMainLibrary: 1, AsDependency: 1}, stats)

	stats, err = scanner.Usage(ctx, "H5P.Nowhere")
	require.NoError(t, err)
	assert.Equal(t, contentstore.UsageStats{}, stats)
}

func TestScannerUsageEmptyStore(t *testing.T) {
	scanner := contentstore.NewScanner(memoryrepo.New(), contentstore.NewLibraryDependencyChecker())

	stats, err := scanner.Usage(context.Background(), "H5P.Image")
	require.NoError(t, err)
	assert.Equal(t, contentstore.UsageStats{}, stats)
}

func TestScannerCustomChecker(t *testing.T) {
	ctx := context.Background()
	repo := memoryrepo.New()

	_, err := repo.Upsert(ctx, nil,
		contentstore.Document{"mainLibrary": "H5P.Other", "uses": "H5P.Image"},
		contentstore.Document{})
	require.NoError(t, err)

	checker := contentstore.DependencyCheckerFunc(func(metadata contentstore.Document, machineName string) bool {
		return metadata["uses"] == machineName
	})

	stats, err := contentstore.NewScanner(repo, checker).Usage(ctx, "H5P.Image")
	require.NoError(t, err)
	assert.Equal(t, contentstore.UsageStats{AsDependency: 1}, stats)
}

func TestLibraryDependencyChecker(t *testing.T) {
	checker := contentstore.NewLibraryDependencyChecker()

	metadata := contentstore.Document{
		"preloadedDependencies": []any{
			map[string]any{"machineName": "H5P.Text", "majorVersion": float64(1)},
		},
		"editorDependencies": []any{
			map[string]any{"machineName": "H5PEditor.Wizard"},
		},
	}

	assert.True(t, checker.HasDependencyOn(metadata, "H5P.Text"))
	assert.True(t, checker.HasDependencyOn(metadata, "H5PEditor.Wizard"))
	assert.False(t, checker.HasDependencyOn(metadata, "H5P.Video"))
	assert.False(t, checker.HasDependencyOn(contentstore.Document{}, "H5P.Text"))
}
