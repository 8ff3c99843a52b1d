package record

// ExportSchemaVersion is written to the header line of every JSONL backup.
const ExportSchemaVersion = "1.0"

// ExportHeader is the first line of a JSONL backup.
type ExportHeader struct {
	LetVisionExport bool   `json:"_letvision_export"`
	SchemaVersion   string `json:"schema_version"`
	ExportedAt      int64  `json:"exported_at"`
	Count           int    `json:"count"`
}
