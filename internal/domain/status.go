package domain

// Status is the processing state carried by samples, scans, processed
// scans and scan averages in the LIMS schema. The ordinal values are
// fixed by the upstream acquisition system and are not contiguous.
type Status int

const (
	StatusNew        Status = 0
	StatusUploaded   Status = 5
	StatusProcessing Status = 6
	StatusProcessed  Status = 7
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusUploaded, StatusProcessing, StatusProcessed:
		return true
	}
	return false
}

// Next advances one step along 0 -> 5 -> 6 -> 7. The terminal state is
// absorbing: advancing 7 returns 7. Unknown states are returned as-is so
// a bad row never cycles.
func (s Status) Next() Status {
	switch s {
	case StatusNew:
		return StatusUploaded
	case StatusUploaded:
		return StatusProcessing
	case StatusProcessing:
		return StatusProcessed
	}
	return s
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusUploaded:
		return "uploaded"
	case StatusProcessing:
		return "processing"
	case StatusProcessed:
		return "processed"
	}
	return "unknown"
}
