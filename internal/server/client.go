package server

import (
	"context"

	"google.golang.org/grpc"
)

// ControlClient calls the control service with the JSON codec.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) Status(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, "Status", &Empty{}, opts...)
}

func (c *ControlClient) TaskLog(ctx context.Context, opts ...grpc.CallOption) (*TaskLogResponse, error) {
	return invoke[TaskLogResponse](ctx, c.cc, "TaskLog", &Empty{}, opts...)
}

func (c *ControlClient) ListFiles(ctx context.Context, opts ...grpc.CallOption) (*ListFilesResponse, error) {
	return invoke[ListFilesResponse](ctx, c.cc, "ListFiles", &Empty{}, opts...)
}

func (c *ControlClient) StartTask(ctx context.Context, in *StartTaskRequest, opts ...grpc.CallOption) (*StartTaskResponse, error) {
	return invoke[StartTaskResponse](ctx, c.cc, "StartTask", in, opts...)
}

func (c *ControlClient) CancelTask(ctx context.Context, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "CancelTask", &Empty{}, opts...)
}

func (c *ControlClient) ResetStatus(ctx context.Context, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "ResetStatus", &Empty{}, opts...)
}

func (c *ControlClient) ClearData(ctx context.Context, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "ClearData", &Empty{}, opts...)
}

func (c *ControlClient) ListCatalog(ctx context.Context, opts ...grpc.CallOption) (*ListCatalogResponse, error) {
	return invoke[ListCatalogResponse](ctx, c.cc, "ListCatalog", &Empty{}, opts...)
}

func (c *ControlClient) UpdateCatalogEntry(ctx context.Context, in *UpdateCatalogEntryRequest, opts ...grpc.CallOption) (*CatalogEntryResponse, error) {
	return invoke[CatalogEntryResponse](ctx, c.cc, "UpdateCatalogEntry", in, opts...)
}

func (c *ControlClient) DeleteCatalogEntry(ctx context.Context, in *DeleteCatalogEntryRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "DeleteCatalogEntry", in, opts...)
}

func (c *ControlClient) ExportCatalog(ctx context.Context, opts ...grpc.CallOption) (*ExportCatalogResponse, error) {
	return invoke[ExportCatalogResponse](ctx, c.cc, "ExportCatalog", &Empty{}, opts...)
}

func (c *ControlClient) ImportCatalog(ctx context.Context, in *ImportCatalogRequest, opts ...grpc.CallOption) (*ImportCatalogResponse, error) {
	return invoke[ImportCatalogResponse](ctx, c.cc, "ImportCatalog", in, opts...)
}

func (c *ControlClient) ListRaw(ctx context.Context, opts ...grpc.CallOption) (*ListRawResponse, error) {
	return invoke[ListRawResponse](ctx, c.cc, "ListRaw", &Empty{}, opts...)
}

func (c *ControlClient) UpdateRawRecord(ctx context.Context, in *UpdateRawRecordRequest, opts ...grpc.CallOption) (*RawRecordResponse, error) {
	return invoke[RawRecordResponse](ctx, c.cc, "UpdateRawRecord", in, opts...)
}
