package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

type RawDataRepository interface {
	// Load returns an empty document when nothing was stored yet.
	Load(ctx context.Context) (*entity.RawDocument, error)
	Save(ctx context.Context, doc *entity.RawDocument) error
	Clear(ctx context.Context) error
}

type CatalogRepository interface {
	// Load returns an empty catalog when nothing was stored yet.
	Load(ctx context.Context) ([]entity.CatalogEntry, error)
	Save(ctx context.Context, entries []entity.CatalogEntry) error
	Clear(ctx context.Context) error
}

type ProgressRepository interface {
	LoadState(ctx context.Context) (entity.ProgressState, error)
	SaveState(ctx context.Context, state entity.ProgressState) error
	LoadLog(ctx context.Context) ([]entity.TaskLogEntry, error)
	// AppendLog adds an entry and keeps only the newest constants.MaxTaskLogEntries.
	AppendLog(ctx context.Context, entry entity.TaskLogEntry) error
}

// loadJSON decodes the document under key into dst. found is false when the key is absent.
func loadJSON(ctx context.Context, store DocumentStore, key string, dst any) (bool, error) {
	b, err := store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, persistenceError("decode", key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, store DocumentStore, key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return persistenceError("encode", key, err)
	}
	return store.Save(ctx, key, b)
}

type rawDataRepository struct {
	store  DocumentStore
	logger *slog.Logger
}

func NewRawDataRepository(store DocumentStore, logger *slog.Logger) RawDataRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &rawDataRepository{store: store, logger: logger}
}

func (r *rawDataRepository) Load(ctx context.Context) (*entity.RawDocument, error) {
	doc := entity.NewRawDocument()
	if _, err := loadJSON(ctx, r.store, constants.DocRawData, doc); err != nil {
		r.logger.Error("failed to load raw data", "error", err)
		return nil, err
	}
	if doc.Records == nil {
		doc.Records = []entity.LineItem{}
	}
	if doc.ProcessedFiles == nil {
		doc.ProcessedFiles = map[string]entity.FileMeta{}
	}
	return doc, nil
}

func (r *rawDataRepository) Save(ctx context.Context, doc *entity.RawDocument) error {
	if err := saveJSON(ctx, r.store, constants.DocRawData, doc); err != nil {
		r.logger.Error("failed to save raw data", "records", len(doc.Records), "error", err)
		return err
	}
	return nil
}

func (r *rawDataRepository) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, constants.DocRawData)
}

type catalogRepository struct {
	store  DocumentStore
	logger *slog.Logger
}

func NewCatalogRepository(store DocumentStore, logger *slog.Logger) CatalogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogRepository{store: store, logger: logger}
}

func (r *catalogRepository) Load(ctx context.Context) ([]entity.CatalogEntry, error) {
	var entries []entity.CatalogEntry
	if _, err := loadJSON(ctx, r.store, constants.DocCatalog, &entries); err != nil {
		r.logger.Error("failed to load catalog", "error", err)
		return nil, err
	}
	if entries == nil {
		entries = []entity.CatalogEntry{}
	}
	return entries, nil
}

func (r *catalogRepository) Save(ctx context.Context, entries []entity.CatalogEntry) error {
	if entries == nil {
		entries = []entity.CatalogEntry{}
	}
	if err := saveJSON(ctx, r.store, constants.DocCatalog, entries); err != nil {
		r.logger.Error("failed to save catalog", "entries", len(entries), "error", err)
		return err
	}
	return nil
}

func (r *catalogRepository) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, constants.DocCatalog)
}

type progressRepository struct {
	store  DocumentStore
	logger *slog.Logger
}

func NewProgressRepository(store DocumentStore, logger *slog.Logger) ProgressRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &progressRepository{store: store, logger: logger}
}

func (r *progressRepository) LoadState(ctx context.Context) (entity.ProgressState, error) {
	state := entity.IdleProgress()
	found, err := loadJSON(ctx, r.store, constants.DocProgress, &state)
	if err != nil {
		return entity.IdleProgress(), err
	}
	if !found {
		return entity.IdleProgress(), nil
	}
	return state, nil
}

func (r *progressRepository) SaveState(ctx context.Context, state entity.ProgressState) error {
	return saveJSON(ctx, r.store, constants.DocProgress, state)
}

func (r *progressRepository) LoadLog(ctx context.Context) ([]entity.TaskLogEntry, error) {
	var entries []entity.TaskLogEntry
	if _, err := loadJSON(ctx, r.store, constants.DocTaskLog, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []entity.TaskLogEntry{}
	}
	return entries, nil
}

func (r *progressRepository) AppendLog(ctx context.Context, entry entity.TaskLogEntry) error {
	entries, err := r.LoadLog(ctx)
	if err != nil {
		r.logger.Warn("task log unreadable, starting a new one", "error", err)
		entries = nil
	}
	entries = append(entries, entry)
	if over := len(entries) - constants.MaxTaskLogEntries; over > 0 {
		entries = entries[over:]
	}
	return saveJSON(ctx, r.store, constants.DocTaskLog, entries)
}
