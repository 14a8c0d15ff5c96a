package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

const maxNameLength = 500

// Service handles manual catalog management.
type Service struct {
	catalogRepo repository.CatalogRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new catalog service.
func NewService(catalogRepo repository.CatalogRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalogRepo: catalogRepo, logger: logger, now: time.Now}
}

// ListEntries returns the whole catalog in stored order.
func (s *Service) ListEntries(ctx context.Context) ([]entity.CatalogEntry, error) {
	entries, err := s.catalogRepo.Load(ctx)
	if err != nil {
		return nil, common.WrapError(err, "list catalog")
	}
	s.logger.Debug("catalog listed", "count", len(entries))
	return entries, nil
}

// GetEntry returns the entry with the given ID.
func (s *Service) GetEntry(ctx context.Context, id string) (*entity.CatalogEntry, error) {
	entries, idx, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	e := entries[idx]
	return &e, nil
}

// UpdateEntry applies a manual edit and stamps updated_at.
func (s *Service) UpdateEntry(ctx context.Context, id string, patch entity.CatalogEntryPatch) (*entity.CatalogEntry, error) {
	v := common.NewValidator()
	if patch.Name != nil {
		v.Field("name", *patch.Name, common.Required, common.MaxLength(maxNameLength))
	}
	if patch.Unit != nil {
		v.Field("unit", *patch.Unit, common.MaxLength(50))
	}
	if patch.MaterialPrice != nil {
		v.Field("material_price", *patch.MaterialPrice, common.NonNegative)
	}
	if patch.WorkPrice != nil {
		v.Field("work_price", *patch.WorkPrice, common.NonNegative)
	}
	if err := v.Error(); err != nil {
		return nil, err
	}

	entries, idx, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	e := &entries[idx]
	if patch.Name != nil {
		e.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Unit != nil {
		e.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.MaterialPrice != nil {
		e.MaterialPrice = *patch.MaterialPrice
	}
	if patch.WorkPrice != nil {
		e.WorkPrice = *patch.WorkPrice
	}
	if patch.MaterialPriceApproved != nil {
		e.MaterialPriceApproved = *patch.MaterialPriceApproved
	}
	if patch.WorkPriceApproved != nil {
		e.WorkPriceApproved = *patch.WorkPriceApproved
	}
	e.UpdatedAt = s.now().UTC()

	if err := s.catalogRepo.Save(ctx, entries); err != nil {
		return nil, err
	}
	s.logger.Info("catalog entry updated", "id", e.ID, "name", e.Name)
	out := *e
	return &out, nil
}

// DeleteEntry removes the entry with the given ID.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	entries, idx, err := s.locate(ctx, id)
	if err != nil {
		return err
	}
	name := entries[idx].Name
	entries = append(entries[:idx], entries[idx+1:]...)
	if err := s.catalogRepo.Save(ctx, entries); err != nil {
		return err
	}
	s.logger.Info("catalog entry deleted", "id", id, "name", name)
	return nil
}

func (s *Service) locate(ctx context.Context, id string) ([]entity.CatalogEntry, int, error) {
	v := common.NewValidator().Field("id", strings.TrimSpace(id), common.UUID)
	if err := v.Error(); err != nil {
		return nil, 0, err
	}
	want := uuid.MustParse(strings.TrimSpace(id))

	entries, err := s.catalogRepo.Load(ctx)
	if err != nil {
		return nil, 0, common.WrapError(err, "load catalog")
	}
	for i := range entries {
		if entries[i].ID == want {
			return entries, i, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: catalog entry %s", common.ErrNotFound, want)
}
