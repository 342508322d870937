package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/harborwatch/fleetcheck-engine/pkg/models"
	"github.com/harborwatch/fleetcheck-engine/pkg/repositories"
)

// ResourceService manages the resource definition catalog and the
// periodicity catalog. Catalog edits never resynchronize assignment
// matrices implicitly; callers trigger MatrixService.ResynchronizeOperator
// explicitly when they want recomputation.
type ResourceService interface {
	Create(ctx context.Context, resource *models.ResourceDefinition) error
	Update(ctx context.Context, resource *models.ResourceDefinition) error
	Get(ctx context.Context, id uuid.UUID) (*models.ResourceDefinition, error)
	ListApplicable(ctx context.Context, operatorID uuid.UUID) ([]*models.ResourceDefinition, error)

	ListPeriodicities(ctx context.Context) ([]*models.Periodicity, error)

	// SeedSharedCatalog loads the YAML catalog of shared resource
	// definitions and upserts them by name. Idempotent; run at startup.
	SeedSharedCatalog(ctx context.Context, path string) error
}

type resourceService struct {
	resources     repositories.ResourceRepository
	periodicities repositories.PeriodicityRepository
	logger        *zap.Logger
}

// NewResourceService creates a new ResourceService.
func NewResourceService(
	resources repositories.ResourceRepository,
	periodicities repositories.PeriodicityRepository,
	logger *zap.Logger,
) ResourceService {
	return &resourceService{
		resources:     resources,
		periodicities: periodicities,
		logger:        logger.Named("resource-service"),
	}
}

var _ ResourceService = (*resourceService)(nil)

func (s *resourceService) Create(ctx context.Context, resource *models.ResourceDefinition) error {
	if err := s.resources.Create(ctx, resource); err != nil {
		return fmt.Errorf("create resource definition: %w", err)
	}

	s.logger.Info("Created resource definition",
		zap.String("resource_id", resource.ID.String()),
		zap.String("name", resource.Name),
		zap.Bool("shared", resource.Shared()))
	return nil
}

func (s *resourceService) Update(ctx context.Context, resource *models.ResourceDefinition) error {
	if err := s.resources.Update(ctx, resource); err != nil {
		return fmt.Errorf("update resource definition: %w", err)
	}

	s.logger.Info("Updated resource definition",
		zap.String("resource_id", resource.ID.String()),
		zap.String("name", resource.Name))
	return nil
}

func (s *resourceService) Get(ctx context.Context, id uuid.UUID) (*models.ResourceDefinition, error) {
	return s.resources.GetByID(ctx, id)
}

func (s *resourceService) ListApplicable(ctx context.Context, operatorID uuid.UUID) ([]*models.ResourceDefinition, error) {
	return s.resources.ListApplicable(ctx, operatorID)
}

func (s *resourceService) ListPeriodicities(ctx context.Context) ([]*models.Periodicity, error) {
	return s.periodicities.List(ctx)
}

// ============================================================================
// Shared catalog seeding
// ============================================================================

type seedCondition struct {
	Operator       string  `yaml:"operador"`
	Value          float64 `yaml:"valor"`
	ResultQuantity int     `yaml:"resultado_cantidad"`
	ResultVisible  bool    `yaml:"resultado_visible"`
}

type seedContract struct {
	Attribute        string          `yaml:"atributo"`
	Conditions       []seedCondition `yaml:"condiciones"`
	FallbackQuantity int             `yaml:"fallback_cantidad"`
	FallbackVisible  bool            `yaml:"fallback_visible"`
}

type seedResource struct {
	Name         string        `yaml:"name"`
	Purpose      string        `yaml:"purpose"`
	Periodicity  string        `yaml:"periodicity"`
	Requirements []string      `yaml:"requirements"`
	Contract     *seedContract `yaml:"contract"`
}

type seedPeriodicity struct {
	Name           string `yaml:"name"`
	IntervalMonths int    `yaml:"interval_months"`
}

type seedCatalog struct {
	Periodicities []seedPeriodicity `yaml:"periodicities"`
	Resources     []seedResource    `yaml:"resources"`
}

func (c *seedContract) toModel() *models.RuleContract {
	if c == nil || c.Attribute == "" {
		return nil
	}
	contract := &models.RuleContract{
		Attribute:        c.Attribute,
		FallbackQuantity: c.FallbackQuantity,
		FallbackVisible:  c.FallbackVisible,
	}
	for _, cond := range c.Conditions {
		contract.Conditions = append(contract.Conditions, models.RuleCondition{
			Operator:       cond.Operator,
			Value:          cond.Value,
			ResultQuantity: cond.ResultQuantity,
			ResultVisible:  cond.ResultVisible,
		})
	}
	return contract
}

func (s *resourceService) SeedSharedCatalog(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed catalog: %w", err)
	}

	var catalog seedCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("parse seed catalog: %w", err)
	}

	// Periodicities are matched by name and created when missing.
	existing, err := s.periodicities.List(ctx)
	if err != nil {
		return fmt.Errorf("list periodicities: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(existing))
	for _, p := range existing {
		byName[p.Name] = p.ID
	}
	for _, sp := range catalog.Periodicities {
		if _, ok := byName[sp.Name]; ok {
			continue
		}
		p := &models.Periodicity{Name: sp.Name, IntervalMonths: sp.IntervalMonths}
		if err := s.periodicities.Create(ctx, p); err != nil {
			return fmt.Errorf("seed periodicity %q: %w", sp.Name, err)
		}
		byName[p.Name] = p.ID
	}

	for _, sr := range catalog.Resources {
		periodicityID, ok := byName[sr.Periodicity]
		if !ok {
			return fmt.Errorf("seed resource %q references unknown periodicity %q", sr.Name, sr.Periodicity)
		}

		resource := &models.ResourceDefinition{
			Name:          sr.Name,
			Purpose:       sr.Purpose,
			PeriodicityID: periodicityID,
			Requirements:  sr.Requirements,
			Contract:      sr.Contract.toModel(),
		}
		if err := s.resources.UpsertShared(ctx, resource); err != nil {
			return fmt.Errorf("seed resource %q: %w", sr.Name, err)
		}
	}

	s.logger.Info("Seeded shared resource catalog",
		zap.String("path", path),
		zap.Int("resources", len(catalog.Resources)),
		zap.Int("periodicities", len(catalog.Periodicities)))
	return nil
}
