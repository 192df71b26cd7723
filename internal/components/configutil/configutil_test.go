package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
	Timeout   int    `json:"timeout_seconds"`
}

func TestLocalName(t *testing.T) {
	require.Equal(t, filepath.Join("config", "ao3.local.json5"), LocalName("config/ao3.json5"))
	require.Equal(t, "telemetry.local.json5", LocalName("telemetry.json5"))
	require.Equal(t, filepath.Join("conf.d", "ao3.local"), LocalName("conf.d/ao3"))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "ao3.json5")

	_, err := ReadConfig[testConfig](name)
	require.True(t, os.IsNotExist(err))

	err = os.WriteFile(name, []byte(`{
		// comments are allowed in json5
		base_url: "https://archiveofourown.org",
		user_agent: "default",
		timeout_seconds: 30,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:   "https://archiveofourown.org",
		UserAgent: "default",
		Timeout:   30,
	}, cfg)

	err = os.WriteFile(LocalName(name), []byte(`{ user_agent: "local" }`), 0600)
	require.NoError(t, err)

	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "https://archiveofourown.org", cfg.BaseUrl)
	require.Equal(t, "local", cfg.UserAgent)
	require.Equal(t, 30, cfg.Timeout)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "scraper.json5"),
		[]byte(`{ base_url: "http://localhost" }`),
		0600,
	))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("scraper.json5")
	require.NoError(t, err)
	require.Equal(t, "http://localhost", cfg.BaseUrl)

	_, err = ReadRecursively[testConfig]("missing-config-file.json5")
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigExpandsEnv(t *testing.T) {
	t.Setenv("AO3_TEST_AGENT", "from-env")

	name := filepath.Join(t.TempDir(), "ao3.json5")
	err := os.WriteFile(name, []byte(`{ user_agent: "${AO3_TEST_AGENT}" }`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.UserAgent)
}

func TestReadConfigInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ao3.json5")
	err := os.WriteFile(name, []byte(`{ base_url: `), 0600)
	require.NoError(t, err)

	_, err = ReadConfig[testConfig](name)
	require.Error(t, err)
	require.False(t, os.IsNotExist(err))
}
