package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	corecatalog "github.com/kozichsergey/SmetaAI/internal/core/catalog"
	"github.com/kozichsergey/SmetaAI/internal/core/cluster"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/export"
	"github.com/kozichsergey/SmetaAI/internal/pipeline"
	"github.com/kozichsergey/SmetaAI/internal/progress"
	"github.com/kozichsergey/SmetaAI/internal/repository"
	"github.com/kozichsergey/SmetaAI/internal/services/catalog"
	"github.com/kozichsergey/SmetaAI/internal/services/control"
	"github.com/kozichsergey/SmetaAI/internal/services/rawdata"
	"github.com/kozichsergey/SmetaAI/internal/tasks"
)

type harness struct {
	client  *ControlClient
	conn    *grpc.ClientConn
	raw     repository.RawDataRepository
	catalog repository.CatalogRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	root := t.TempDir()

	store, err := repository.NewFileStore(filepath.Join(root, "data"), nil)
	require.NoError(t, err)
	rawRepo := repository.NewRawDataRepository(store, nil)
	catRepo := repository.NewCatalogRepository(store, nil)
	progRepo := repository.NewProgressRepository(store, nil)

	dirs := common.DirsConfig{
		Input:     filepath.Join(root, "input"),
		Calculate: filepath.Join(root, "calculate"),
		Output:    filepath.Join(root, "output"),
	}
	p := pipeline.New(pipeline.Deps{
		Raw:      rawRepo,
		Catalog:  catRepo,
		Resolver: cluster.NewResolver(nil, nil),
		Builder:  corecatalog.NewBuilder(25),
		Matcher:  corecatalog.NewMatcher(nil, 0.3, nil),
	}, pipeline.Config{InputDir: dirs.Input, CalculateDir: dirs.Calculate, OutputDir: dirs.Output}, nil)

	runner := tasks.NewRunner(nil)
	ctl := control.NewService(ctx, control.Deps{
		Runner:   runner,
		Tracker:  progress.NewTracker(ctx, progRepo, nil),
		Pipeline: p,
		Raw:      rawRepo,
		Catalog:  catRepo,
		Dirs:     dirs,
	}, nil)

	srv := New(NewControlServer(ctl, catalog.NewService(catRepo, nil), rawdata.NewService(rawRepo, nil), export.NewService(catRepo, nil), nil), nil)
	lis := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		require.NoError(t, <-done)
		runner.Shutdown(context.Background())
	})
	return &harness{client: NewControlClient(conn), conn: conn, raw: rawRepo, catalog: catRepo}
}

func TestHealthServing(t *testing.T) {
	h := newHarness(t)
	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestStatusOnEmptyStore(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusIdle, resp.Status.Progress.Status)
	assert.Zero(t, resp.Status.CatalogEntries)
	assert.Zero(t, resp.Status.RawRecords)
}

func TestErrorCodes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.StartTask(ctx, &StartTaskRequest{Task: "bogus"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.CancelTask(ctx)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.client.ExportCatalog(ctx)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.ImportCatalog(ctx, &ImportCatalogRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.DeleteCatalogEntry(ctx, &DeleteCatalogEntryRequest{ID: "not-a-uuid"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCatalogEditOverRPC(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, h.catalog.Save(ctx, []entity.CatalogEntry{{ID: id, Name: "Fan X", MaterialPrice: 1050, ClusterSize: 2}}))

	list, err := h.client.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, id, list.Entries[0].ID)

	price := 990.0
	approved := true
	upd, err := h.client.UpdateCatalogEntry(ctx, &UpdateCatalogEntryRequest{
		ID:    id.String(),
		Patch: entity.CatalogEntryPatch{MaterialPrice: &price, MaterialPriceApproved: &approved},
	})
	require.NoError(t, err)
	assert.Equal(t, 990.0, upd.Entry.MaterialPrice)
	assert.True(t, upd.Entry.MaterialPriceApproved)

	xlsx, err := h.client.ExportCatalog(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, xlsx.Xlsx)

	_, err = h.client.DeleteCatalogEntry(ctx, &DeleteCatalogEntryRequest{ID: id.String()})
	require.NoError(t, err)
	_, err = h.client.DeleteCatalogEntry(ctx, &DeleteCatalogEntryRequest{ID: id.String()})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestStartOptimizeOverRPC(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := entity.NewRawDocument()
	doc.Records = []entity.LineItem{
		{Name: "Fan X", MaterialPrice: 1000, SourceFile: "a.xlsx"},
		{Name: "Fan X", MaterialPrice: 1100, SourceFile: "b.xlsx"},
	}
	require.NoError(t, h.raw.Save(ctx, doc))

	started, err := h.client.StartTask(ctx, &StartTaskRequest{Task: "optimize"})
	require.NoError(t, err)
	assert.NotEmpty(t, started.TaskID)

	require.Eventually(t, func() bool {
		resp, err := h.client.Status(ctx)
		return err == nil && resp.Status.Progress.Status == constants.TaskStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)

	list, err := h.client.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, 1000.0, list.Entries[0].MaterialPrice)
	assert.Equal(t, 1100.0, list.Entries[1].MaterialPrice)

	raw, err := h.client.ListRaw(ctx)
	require.NoError(t, err)
	assert.Len(t, raw.Records, 2)

	logResp, err := h.client.TaskLog(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, logResp.Entries)
}
