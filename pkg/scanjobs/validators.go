package scanjobs

// CreateScanPayload holds the parameters for starting a scan.
type CreateScanPayload struct {
	ScanType string `json:"scan_type" validate:"omitempty,oneof=full process"`
}

// ListJobsQuery holds the query parameters for listing scan jobs.
type ListJobsQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}
