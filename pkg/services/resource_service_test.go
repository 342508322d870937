package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

const seedFixture = `
periodicities:
  - name: mensual
    interval_months: 1
  - name: anual
    interval_months: 12

resources:
  - name: Balsa salvavidas
    purpose: Abandono de buque
    periodicity: anual
    requirements:
      - presion
      - caducidad
    contract:
      atributo: eslora
      condiciones:
        - operador: "<="
          valor: 10
          resultado_cantidad: 0
          resultado_visible: false
        - operador: "<="
          valor: 50
          resultado_cantidad: 2
          resultado_visible: true
      fallback_cantidad: 1
      fallback_visible: true

  - name: Certificado de navegabilidad
    purpose: Documentación
    periodicity: anual
    requirements: []
`

func writeSeedFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedFixture), 0o600))
	return path
}

func TestSeedSharedCatalog(t *testing.T) {
	resources := &mockResourceRepo{}
	periodicities := newMockPeriodicityRepo()
	svc := NewResourceService(resources, periodicities, zap.NewNop())

	require.NoError(t, svc.SeedSharedCatalog(context.Background(), writeSeedFixture(t)))

	assert.Len(t, resources.defs, 2)

	ps, err := periodicities.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	var raft *models.ResourceDefinition
	for _, d := range resources.defs {
		if d.Name == "Balsa salvavidas" {
			raft = d
		}
		assert.True(t, d.Shared())
	}
	require.NotNil(t, raft)
	require.NotNil(t, raft.Contract)
	assert.Equal(t, models.AttrLength, raft.Contract.Attribute)
	assert.Len(t, raft.Contract.Conditions, 2)
	assert.Equal(t, 1, raft.Contract.FallbackQuantity)
	assert.Equal(t, []string{"presion", "caducidad"}, raft.Requirements)
}

func TestSeedSharedCatalog_Idempotent(t *testing.T) {
	resources := &mockResourceRepo{}
	periodicities := newMockPeriodicityRepo()
	svc := NewResourceService(resources, periodicities, zap.NewNop())

	path := writeSeedFixture(t)
	require.NoError(t, svc.SeedSharedCatalog(context.Background(), path))
	require.NoError(t, svc.SeedSharedCatalog(context.Background(), path))

	assert.Len(t, resources.defs, 2)

	ps, err := periodicities.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestSeedSharedCatalog_UnknownPeriodicity(t *testing.T) {
	resources := &mockResourceRepo{}
	periodicities := newMockPeriodicityRepo()
	svc := NewResourceService(resources, periodicities, zap.NewNop())

	path := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resources:
  - name: Extintor
    periodicity: quincenal
`), 0o600))

	err := svc.SeedSharedCatalog(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quincenal")
}

func TestSeedSharedCatalog_MissingFile(t *testing.T) {
	svc := NewResourceService(&mockResourceRepo{}, newMockPeriodicityRepo(), zap.NewNop())
	err := svc.SeedSharedCatalog(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestResourceCatalog_NoContractMeansNil(t *testing.T) {
	resources := &mockResourceRepo{}
	periodicities := newMockPeriodicityRepo()
	svc := NewResourceService(resources, periodicities, zap.NewNop())

	require.NoError(t, svc.SeedSharedCatalog(context.Background(), writeSeedFixture(t)))

	for _, d := range resources.defs {
		if d.Name == "Certificado de navegabilidad" {
			assert.Nil(t, d.Contract)
		}
	}
}
