package rawdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	repo := repository.NewRawDataRepository(store, nil)
	doc := entity.NewRawDocument()
	doc.Records = []entity.LineItem{
		{Name: "Fan X", MaterialPrice: 1000, SourceFile: "a.xlsx"},
		{Name: "Mounting", WorkPrice: 300, SourceFile: "a.xlsx"},
	}
	require.NoError(t, repo.Save(context.Background(), doc))
	return NewService(repo, nil)
}

func TestUpdateRecord(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	got, err := svc.UpdateRecord(ctx, 1, entity.LineItemPatch{Unit: ptr("h"), WorkPrice: ptr(350.0)})
	require.NoError(t, err)
	assert.Equal(t, "h", got.Unit)
	assert.Equal(t, 350.0, got.WorkPrice)
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, "a.xlsx", got.SourceFile)

	list, err := svc.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 350.0, list[1].WorkPrice)
	assert.Nil(t, list[0].UpdatedAt)
}

func TestUpdateRecord_Rules(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.UpdateRecord(ctx, 0, entity.LineItemPatch{Name: ptr("")})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.UpdateRecord(ctx, 0, entity.LineItemPatch{MaterialPrice: ptr(0.0)})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.UpdateRecord(ctx, -1, entity.LineItemPatch{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.UpdateRecord(ctx, 5, entity.LineItemPatch{})
	assert.ErrorIs(t, err, common.ErrNotFound)

	list, err := svc.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, list[0].MaterialPrice)
}
