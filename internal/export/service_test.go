package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

func newService(t *testing.T) (*Service, repository.CatalogRepository) {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	repo := repository.NewCatalogRepository(store, nil)
	return NewService(repo, nil), repo
}

func TestExportThenImport(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	warning := "Recheck the material price!"
	require.NoError(t, repo.Save(ctx, []entity.CatalogEntry{
		{
			Name: "Fan X", Unit: "pcs", MaterialPrice: 1050, ClusterSize: 2,
			SourceFiles:      []string{"a.xlsx", "b.xlsx"},
			MaterialAnalysis: &entity.PriceAggregationResult{Warning: &warning},
		},
		{Name: "Mounting", WorkPrice: 300, ClusterSize: 1},
	}))

	data, err := svc.ExportCatalogXLSX(ctx)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	rows, err := f.GetRows(constants.CatalogSheet)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, []string{"Fan X", "pcs", "1050", "0", "2", "a.xlsx, b.xlsx", warning}, rows[1])

	n, err := svc.ImportCatalogFile(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fan X", got[0].Name)
	assert.Equal(t, 2, got[0].ClusterSize)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, got[0].SourceFiles)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Equal(t, 300.0, got[1].WorkPrice)
}

func TestExport_EmptyCatalog(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.ExportCatalogXLSX(context.Background())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImport_RussianHeadersAndFiltering(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	data := workbookBytes(t, [][]any{
		{"Наименование", "Цена материала", "Цена работы"},
		{"Воздуховод 100", "1 250,50", ""},
		{"Без цены", 0, 0},
		{"", 10, 10},
	})
	n, err := svc.ImportCatalogFile(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1250.5, got[0].MaterialPrice)
	assert.Equal(t, 1, got[0].ClusterSize)
}

func TestImport_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	require.NoError(t, repo.Save(ctx, []entity.CatalogEntry{{Name: "Keep me", MaterialPrice: 1}}))

	_, err := svc.ImportCatalogFile(ctx, workbookBytes(t, [][]any{{"Item", "Price"}, {"Fan", 10}}))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.ImportCatalogFile(ctx, workbookBytes(t, [][]any{{"Name"}, {"Fan"}}))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.ImportCatalogFile(ctx, []byte("not a workbook"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Keep me", got[0].Name)
}
