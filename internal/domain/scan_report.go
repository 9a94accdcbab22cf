package domain

import "time"

// ScanStatus summarises a scan outcome for the security report log.
type ScanStatus string

const (
	ScanStatusClean     ScanStatus = "clean"
	ScanStatusWarning   ScanStatus = "warning"
	ScanStatusMalicious ScanStatus = "malicious"
	ScanStatusError     ScanStatus = "error"
)

// ScanReport is an audit entry written for every attachment scan.
type ScanReport struct {
	ID               int64
	UserID           *int64
	OriginalFilename string
	FileHash         string
	Status           ScanStatus
	Detections       int
	TotalEngines     int
	Details          string
	CreatedAt        time.Time

	// Populated on reads joined with users.
	ReporterName       string
	ReporterDepartment string
}
