package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/export"
	"github.com/kozichsergey/SmetaAI/internal/services/catalog"
	"github.com/kozichsergey/SmetaAI/internal/services/control"
	"github.com/kozichsergey/SmetaAI/internal/services/rawdata"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "smeta.v1.ControlService"

// ControlServiceServer is the server API of the control service.
type ControlServiceServer interface {
	Status(context.Context, *Empty) (*StatusResponse, error)
	TaskLog(context.Context, *Empty) (*TaskLogResponse, error)
	ListFiles(context.Context, *Empty) (*ListFilesResponse, error)
	StartTask(context.Context, *StartTaskRequest) (*StartTaskResponse, error)
	CancelTask(context.Context, *Empty) (*MessageResponse, error)
	ResetStatus(context.Context, *Empty) (*MessageResponse, error)
	ClearData(context.Context, *Empty) (*MessageResponse, error)
	ListCatalog(context.Context, *Empty) (*ListCatalogResponse, error)
	UpdateCatalogEntry(context.Context, *UpdateCatalogEntryRequest) (*CatalogEntryResponse, error)
	DeleteCatalogEntry(context.Context, *DeleteCatalogEntryRequest) (*MessageResponse, error)
	ExportCatalog(context.Context, *Empty) (*ExportCatalogResponse, error)
	ImportCatalog(context.Context, *ImportCatalogRequest) (*ImportCatalogResponse, error)
	ListRaw(context.Context, *Empty) (*ListRawResponse, error)
	UpdateRawRecord(context.Context, *UpdateRawRecordRequest) (*RawRecordResponse, error)
}

func unaryMethod[Req, Resp any](name string, call func(ControlServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ControlServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// ControlServiceDesc describes the control service for grpc.Server.RegisterService.
var ControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Status", ControlServiceServer.Status),
		unaryMethod("TaskLog", ControlServiceServer.TaskLog),
		unaryMethod("ListFiles", ControlServiceServer.ListFiles),
		unaryMethod("StartTask", ControlServiceServer.StartTask),
		unaryMethod("CancelTask", ControlServiceServer.CancelTask),
		unaryMethod("ResetStatus", ControlServiceServer.ResetStatus),
		unaryMethod("ClearData", ControlServiceServer.ClearData),
		unaryMethod("ListCatalog", ControlServiceServer.ListCatalog),
		unaryMethod("UpdateCatalogEntry", ControlServiceServer.UpdateCatalogEntry),
		unaryMethod("DeleteCatalogEntry", ControlServiceServer.DeleteCatalogEntry),
		unaryMethod("ExportCatalog", ControlServiceServer.ExportCatalog),
		unaryMethod("ImportCatalog", ControlServiceServer.ImportCatalog),
		unaryMethod("ListRaw", ControlServiceServer.ListRaw),
		unaryMethod("UpdateRawRecord", ControlServiceServer.UpdateRawRecord),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "smeta/v1/control.json",
}

// RegisterControlServiceServer registers srv on s.
func RegisterControlServiceServer(s grpc.ServiceRegistrar, srv ControlServiceServer) {
	s.RegisterService(&ControlServiceDesc, srv)
}

// ControlServer implements ControlServiceServer on top of the application services.
type ControlServer struct {
	control *control.Service
	catalog *catalog.Service
	raw     *rawdata.Service
	export  *export.Service
	logger  *slog.Logger
}

var _ ControlServiceServer = (*ControlServer)(nil)

func NewControlServer(ctl *control.Service, cat *catalog.Service, raw *rawdata.Service, exp *export.Service, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{control: ctl, catalog: cat, raw: raw, export: exp, logger: logger}
}

func (s *ControlServer) Status(ctx context.Context, _ *Empty) (*StatusResponse, error) {
	st, err := s.control.Status(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{Status: st}, nil
}

func (s *ControlServer) TaskLog(ctx context.Context, _ *Empty) (*TaskLogResponse, error) {
	entries, err := s.control.TaskLog(ctx)
	if err != nil {
		return nil, err
	}
	return &TaskLogResponse{Entries: entries}, nil
}

func (s *ControlServer) ListFiles(context.Context, *Empty) (*ListFilesResponse, error) {
	files, err := s.control.ListFiles()
	if err != nil {
		return nil, err
	}
	return &ListFilesResponse{Files: files}, nil
}

func (s *ControlServer) StartTask(ctx context.Context, req *StartTaskRequest) (*StartTaskResponse, error) {
	name, err := control.ParseTaskName(req.Task)
	if err != nil {
		return nil, err
	}
	id, err := s.control.StartTask(name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("rpc.task.started", "task", name, "task_id", id, "req_id", common.RequestIDFromContext(ctx))
	return &StartTaskResponse{TaskID: id}, nil
}

func (s *ControlServer) CancelTask(context.Context, *Empty) (*MessageResponse, error) {
	if err := s.control.CancelTask(); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: "Cancellation requested"}, nil
}

func (s *ControlServer) ResetStatus(ctx context.Context, _ *Empty) (*MessageResponse, error) {
	if err := s.control.ResetStatus(ctx); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: "Ready"}, nil
}

func (s *ControlServer) ClearData(ctx context.Context, _ *Empty) (*MessageResponse, error) {
	msg, err := s.control.ClearData(ctx)
	if err != nil {
		return nil, err
	}
	return &MessageResponse{Message: msg}, nil
}

func (s *ControlServer) ListCatalog(ctx context.Context, _ *Empty) (*ListCatalogResponse, error) {
	entries, err := s.catalog.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	return &ListCatalogResponse{Entries: entries}, nil
}

func (s *ControlServer) UpdateCatalogEntry(ctx context.Context, req *UpdateCatalogEntryRequest) (*CatalogEntryResponse, error) {
	entry, err := s.catalog.UpdateEntry(ctx, req.ID, req.Patch)
	if err != nil {
		return nil, err
	}
	return &CatalogEntryResponse{Entry: entry}, nil
}

func (s *ControlServer) DeleteCatalogEntry(ctx context.Context, req *DeleteCatalogEntryRequest) (*MessageResponse, error) {
	if err := s.catalog.DeleteEntry(ctx, req.ID); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: "Entry deleted"}, nil
}

func (s *ControlServer) ExportCatalog(ctx context.Context, _ *Empty) (*ExportCatalogResponse, error) {
	xlsx, err := s.export.ExportCatalogXLSX(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportCatalogResponse{Xlsx: xlsx}, nil
}

func (s *ControlServer) ImportCatalog(ctx context.Context, req *ImportCatalogRequest) (*ImportCatalogResponse, error) {
	if len(req.Xlsx) == 0 {
		return nil, common.InvalidArgumentError("xlsx is required")
	}
	n, err := s.export.ImportCatalogFile(ctx, req.Xlsx)
	if err != nil {
		return nil, err
	}
	return &ImportCatalogResponse{Imported: n}, nil
}

func (s *ControlServer) ListRaw(ctx context.Context, _ *Empty) (*ListRawResponse, error) {
	records, err := s.raw.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return &ListRawResponse{Records: records}, nil
}

func (s *ControlServer) UpdateRawRecord(ctx context.Context, req *UpdateRawRecordRequest) (*RawRecordResponse, error) {
	rec, err := s.raw.UpdateRecord(ctx, req.Index, req.Patch)
	if err != nil {
		return nil, err
	}
	return &RawRecordResponse{Record: rec}, nil
}
