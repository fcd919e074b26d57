package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateFormOptions(t *testing.T) {
	require.NoError(t, ValidateFormOptions(DefaultFormOptions()))

	opts := DefaultFormOptions()
	opts.DefaultPageSize = 7
	assert.Error(t, ValidateFormOptions(opts))

	opts = DefaultFormOptions()
	opts.PageSizes = nil
	assert.Error(t, ValidateFormOptions(opts))

	opts = DefaultFormOptions()
	opts.PageSizes = []int{0, 10}
	assert.Error(t, ValidateFormOptions(opts))

	opts = DefaultFormOptions()
	opts.Suppliers = []Choice{{ID: 4}}
	assert.Error(t, ValidateFormOptions(opts))
}

// chdirWithCatalog writes catalog.yml into a temp dir and makes it the
// working directory for the rest of the test.
func chdirWithCatalog(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yml"), []byte(content), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestNewOptionsHolderReadsFile(t *testing.T) {
	chdirWithCatalog(t, `catalog:
  pageSizes: [20, 40]
  defaultPageSize: 20
  brands:
    - id: 9
      name: Acme
`)

	holder, err := NewOptionsHolder(zap.NewNop())
	require.NoError(t, err)

	opts := holder.Get()
	assert.Equal(t, []int{20, 40}, opts.PageSizes)
	assert.Equal(t, 20, opts.DefaultPageSize)
	require.Len(t, opts.Brands, 1)
	assert.Equal(t, "Acme", opts.Brands[0].Name)
	assert.Equal(t, DefaultFormOptions().Units, opts.Units)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SUBMIT_DELAY", "")
	t.Setenv("CATALOG_API_BASE_URL", "http://api.local:9000/")
	t.Setenv("VIEW_SESSION_TTL", "-1m")

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "http://api.local:9000", cfg.CatalogAPI.BaseURL)
	assert.Equal(t, "/products/add", cfg.CatalogAPI.CreatePath)
	assert.Equal(t, time.Duration(0), cfg.SubmitDelay)
	assert.Equal(t, 30*time.Minute, cfg.ViewSessionTTL)
}

func TestPartialEntriesDoNotInheritDefaults(t *testing.T) {
	chdirWithCatalog(t, `catalog:
  suppliers:
    - id: 7
      name: Local Parts
`)

	holder, err := NewOptionsHolder(zap.NewNop())
	require.NoError(t, err)

	opts := holder.Get()
	assert.Equal(t, []Choice{{ID: 7, Name: "Local Parts"}}, opts.Suppliers)
	assert.Equal(t, DefaultFormOptions().Brands, opts.Brands)
	assert.Equal(t, DefaultFormOptions().PageSizes, opts.PageSizes)
	assert.Equal(t, 10, opts.DefaultPageSize)
}

func TestChoiceWithoutNameIsRejected(t *testing.T) {
	chdirWithCatalog(t, `catalog:
  brands:
    - id: 7
`)

	_, err := NewOptionsHolder(zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.brands[0]")
}
