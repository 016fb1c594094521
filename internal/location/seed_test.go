package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

func TestLoadSeedFile_Shipped(t *testing.T) {
	seed, err := LoadSeedFile("../../migrations/locations_seed.yaml")
	require.NoError(t, err)

	idx, err := seed.Index()
	require.NoError(t, err)
	assert.Equal(t, len(seed.Locations), idx.Len())
	assert.Equal(t, len(seed.Streets), idx.StreetCount())

	r := NewResolver(idx)
	res := r.Resolve("PD", "")
	require.Equal(t, models.Resolved, res.Kind)
	assert.Equal(t, "palm-desert", res.Entity.ID)

	st := r.ResolveStreet("Fred Waring Dr", "palm-desert")
	require.Equal(t, models.Resolved, st.Kind)
	assert.Equal(t, 33.74, st.Street.Coordinate)
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}
