package rawdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

// Service handles manual management of extracted records.
type Service struct {
	rawRepo repository.RawDataRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new raw data service.
func NewService(rawRepo repository.RawDataRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{rawRepo: rawRepo, logger: logger, now: time.Now}
}

// ListRecords returns every extracted record in stored order.
func (s *Service) ListRecords(ctx context.Context) ([]entity.LineItem, error) {
	doc, err := s.rawRepo.Load(ctx)
	if err != nil {
		return nil, common.WrapError(err, "list raw data")
	}
	return doc.Records, nil
}

// UpdateRecord edits the record at index. The result must keep a name and at least one
// positive price.
func (s *Service) UpdateRecord(ctx context.Context, index int, patch entity.LineItemPatch) (*entity.LineItem, error) {
	v := common.NewValidator()
	v.Check(index >= 0, "index", index, "must be >= 0")
	if patch.MaterialPrice != nil {
		v.Field("material_price", *patch.MaterialPrice, common.NonNegative)
	}
	if patch.WorkPrice != nil {
		v.Field("work_price", *patch.WorkPrice, common.NonNegative)
	}
	if err := v.Error(); err != nil {
		return nil, err
	}

	doc, err := s.rawRepo.Load(ctx)
	if err != nil {
		return nil, common.WrapError(err, "load raw data")
	}
	if index >= len(doc.Records) {
		return nil, fmt.Errorf("%w: record %d (have %d)", common.ErrNotFound, index, len(doc.Records))
	}

	rec := doc.Records[index]
	if patch.Name != nil {
		rec.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Unit != nil {
		rec.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.MaterialPrice != nil {
		rec.MaterialPrice = *patch.MaterialPrice
	}
	if patch.WorkPrice != nil {
		rec.WorkPrice = *patch.WorkPrice
	}

	v = common.NewValidator()
	v.Field("name", rec.Name, common.Required)
	v.Check(rec.HasPrice(), "price", nil, "at least one price must be positive")
	if err := v.Error(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec.UpdatedAt = &now
	doc.Records[index] = rec
	if err := s.rawRepo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("raw record updated", "index", index, "name", rec.Name)
	return &rec, nil
}
