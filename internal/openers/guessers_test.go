package openers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/imgopen/internal/openers"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
)

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	registry, err := openers.NewRegistry(openers.Deps{})
	require.NoError(t, err)

	all := registry.Openers()

	withType := func(src *source.Source, contentType string) *source.Source {
		src.ContentType = contentType
		return src
	}

	testCases := []struct {
		src      *source.Source
		expected string
	}{
		{src: withType(source.NewFile("/photos", nil), pipeline.DirectoryMimeType), expected: openers.DirectoryName},
		{src: withType(source.NewFile("/photos/a", nil), "image/png"), expected: openers.ImageName},
		{src: withType(source.NewFile("/photos/a.zip", nil), "application/zip"), expected: openers.ArchiveName},
		{src: withType(source.NewFile("/photos/a.jpg", nil), "application/octet-stream"), expected: openers.ImageName},
		{src: source.NewFile("/photos/a.tar.gz", nil), expected: openers.ArchiveName},
		{src: source.NewURI("file:///photos/a.png", nil), expected: openers.LocalURIName},
		{src: source.NewURI("https://example.com/a.png", nil), expected: openers.DownloadName},
		{src: source.NewSelection(openers.URIListFormat, nil, nil), expected: openers.URIListName},
		{src: source.NewSelection(openers.UTF8StringFormat, nil, nil), expected: openers.TextName},
		{src: source.NewSelection("image/jpeg", nil, nil), expected: openers.ImageDataName},
	}

	for _, tc := range testCases {
		t.Run(tc.src.String(), func(t *testing.T) {
			t.Parallel()

			opener := registry.Lookup(tc.src, all)
			require.NotNil(t, opener)
			assert.Equal(t, tc.expected, opener.Name())
		})
	}

	assert.Nil(t, registry.Lookup(withType(source.NewFile("/photos/notes.txt", nil), "text/plain"), all))
	assert.Nil(t, registry.Lookup(source.NewSelection("application/x-unknown", nil, nil), all))
}

func TestRegistryRestrictedOpeners(t *testing.T) {
	t.Parallel()

	registry, err := openers.NewRegistry(openers.Deps{})
	require.NoError(t, err)

	directory := registry.Opener(openers.DirectoryName)
	require.NotNil(t, directory)

	src := source.NewFile("/photos/a.png", nil)
	src.ContentType = "image/png"

	assert.Nil(t, registry.Lookup(src, []pipeline.Opener{directory}))
}

func TestNewRegistryRejectsInvalidIgnore(t *testing.T) {
	t.Parallel()

	_, err := openers.NewRegistry(openers.Deps{Ignore: []string{"[unclosed"}})
	require.Error(t, err)

	var patternErr openers.InvalidIgnorePatternError
	assert.ErrorAs(t, err, &patternErr)
	assert.Equal(t, "[unclosed", patternErr.Pattern)
}
