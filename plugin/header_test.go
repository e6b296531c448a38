package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloHeader = `<?php
/**
 * @package Hello_Dolly
 * @version 1.7.2
 */
/*
Plugin Name: Hello Dolly
Plugin URI: http://wordpress.org/plugins/hello-dolly/
Description: This is not just a plugin: it symbolizes hope.
Author: Matt Mullenweg
Version: 1.7.2
Text Domain: hello-dolly
Requires at least: 4.6
Requires PHP: 7.0
*/

function hello_dolly_get_lyric() {
	$x = array( 'a' => 1 );
}
`

func TestParseHeader(t *testing.T) {
	h := ParseHeader(helloHeader)
	require.NotNil(t, h)
	assert.Equal(t, "Hello Dolly", h.Name)
	assert.Equal(t, "1.7.2", h.Version)
	assert.Equal(t, "Matt Mullenweg", h.Author)
	assert.Equal(t, "http://wordpress.org/plugins/hello-dolly/", h.PluginURI)
	assert.Equal(t, "This is not just a plugin: it symbolizes hope.", h.Description)
	assert.Equal(t, "hello-dolly", h.TextDomain)
	assert.Equal(t, "4.6", h.RequiresWP)
	assert.Equal(t, "7.0", h.RequiresPHP)
}

func TestParseHeaderStarredStyle(t *testing.T) {
	src := "<?php\n/**\n * Plugin Name:       Akismet Anti-spam\n * Version:           5.3 */\n"
	h := ParseHeader(src)
	require.NotNil(t, h)
	assert.Equal(t, "Akismet Anti-spam", h.Name)
	assert.Equal(t, "5.3", h.Version)
}

func TestParseHeaderWithoutName(t *testing.T) {
	assert.Nil(t, ParseHeader("<?php\n// Version: 1.0\n"))
}

func TestReadHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hello-dolly")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "inc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-helpers.php"), []byte("<?php\nfunction x() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.php"), []byte(helloHeader), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inc", "deep.php"), []byte("<?php\n/* Plugin Name: Nested */"), 0o644))

	h, err := ReadHeader(dir)
	require.NoError(t, err)
	assert.Equal(t, "hello.php", h.File)
	assert.Equal(t, "Hello Dolly", h.Name)
	assert.Equal(t, "hello-dolly", GuessSlug(dir, h))
}

func TestReadHeaderMissing(t *testing.T) {
	_, err := ReadHeader(t.TempDir())
	assert.Error(t, err)
}

func TestGuessSlug(t *testing.T) {
	assert.Equal(t, "my-plugin", GuessSlug("/srv/plugins/My-Plugin", nil))
	assert.Equal(t, "domain", GuessSlug("/srv/plugins/My Plugin", &Header{TextDomain: "domain"}))
	assert.Equal(t, "", GuessSlug("/srv/plugins/My Plugin", &Header{TextDomain: "Not A Slug"}))
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0.0", 0},
		{"1.2", "1.10", -1},
		{"2.0.0", "1.9.9", 1},
		{"5.3-beta1", "5.3", -1},
		{"1.2.3.4", "1.2.3.5", -1},
		{"1.2.3.4", "1.2.3", 1},
		{"v2", "1.9", 1},
		{"2.0b", "2.0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestIsOutdated(t *testing.T) {
	h := &Header{Version: "1.6"}
	assert.True(t, h.IsOutdated("1.7.2"))
	assert.False(t, h.IsOutdated("1.6.0"))
	assert.False(t, h.IsOutdated(""))
	assert.False(t, (&Header{}).IsOutdated("1.0"))
	assert.False(t, (*Header)(nil).IsOutdated("1.0"))
}
