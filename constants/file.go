package constants

import "strings"

// AllowedExtensions holds the spreadsheet extensions picked up from the input and calculate folders.
var AllowedExtensions = map[string]struct{}{
	"xlsx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is a supported spreadsheet.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// Sheet headers written into priced estimates and catalog exports.
const (
	HeaderName          = "Name"
	HeaderUnit          = "Unit"
	HeaderMaterialPrice = "Material price"
	HeaderWorkPrice     = "Work price"
	HeaderClusterSize   = "Cluster size"
	HeaderSources       = "Sources"
	HeaderWarnings      = "Warnings"

	// Russian headers already present in many source estimates; reused when found.
	HeaderMaterialPriceRU = "Цена материала"
	HeaderWorkPriceRU     = "Цена работы"
	HeaderNameRU          = "Наименование"
	HeaderUnitRU          = "Единица измерения"
	HeaderClusterSizeRU   = "Размер кластера"
	HeaderSourcesRU       = "Источники"
)

// CatalogSheet is the sheet name of catalog exports.
const CatalogSheet = "Catalog"

// PricedFilePrefix prefixes workbooks written by the calculate task.
const PricedFilePrefix = "PRICED_"

// Document keys used by the repositories.
const (
	DocRawData  = "raw_data"
	DocCatalog  = "catalog"
	DocProgress = "progress"
	DocTaskLog  = "task_log"
)
