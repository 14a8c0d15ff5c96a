package server

import (
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/services/control"
)

type Empty struct{}

type StatusResponse struct {
	Status entity.SystemStatus `json:"status"`
}

type TaskLogResponse struct {
	Entries []entity.TaskLogEntry `json:"entries"`
}

type ListFilesResponse struct {
	Files control.FileLists `json:"files"`
}

type StartTaskRequest struct {
	Task string `json:"task"`
}

type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ListCatalogResponse struct {
	Entries []entity.CatalogEntry `json:"entries"`
}

type UpdateCatalogEntryRequest struct {
	ID    string                   `json:"id"`
	Patch entity.CatalogEntryPatch `json:"patch"`
}

type CatalogEntryResponse struct {
	Entry *entity.CatalogEntry `json:"entry"`
}

type DeleteCatalogEntryRequest struct {
	ID string `json:"id"`
}

// ExportCatalogResponse carries the workbook bytes (base64 in JSON).
type ExportCatalogResponse struct {
	Xlsx []byte `json:"xlsx"`
}

type ImportCatalogRequest struct {
	Xlsx []byte `json:"xlsx"`
}

type ImportCatalogResponse struct {
	Imported int `json:"imported"`
}

type ListRawResponse struct {
	Records []entity.LineItem `json:"records"`
}

type UpdateRawRecordRequest struct {
	Index int                  `json:"index"`
	Patch entity.LineItemPatch `json:"patch"`
}

type RawRecordResponse struct {
	Record *entity.LineItem `json:"record"`
}
