package domain

import "time"

// DocumentStatus is the stored workflow state of a customer license
// document. Expired is derived from the line dates and never stored.
type DocumentStatus string

const (
	DocumentOpen     DocumentStatus = "open"
	DocumentReleased DocumentStatus = "released"
	DocumentExpired  DocumentStatus = "expired" // projection only, never stored
	DocumentArchived DocumentStatus = "archived"
)

// LineNoStep is the spacing between consecutive line numbers, leaving room
// to insert lines between existing ones.
const LineNoStep = 10000

// LicenseDocument is the header of a multi-line customer license document.
// Lines are freely editable while the document is Open; Release freezes the
// document and triggers per-line license generation.
type LicenseDocument struct {
	No         string // sequence-assigned, e.g. "LIC-DOC-000001"
	CustomerNo string
	Status     DocumentStatus
	CreatedAt  time.Time
	ReleasedAt *time.Time
	ReleasedBy string

	Lines []LicenseDocumentLine
}

// LicenseDocumentLine is one application grant within a document. It
// references, but does not own, the license generated for it on release.
type LicenseDocumentLine struct {
	DocumentNo         string
	LineNo             int
	AppID              string
	StartDate          time.Time
	EndDate            time.Time
	Features           []string
	GeneratedLicenseID *string
}

// EffectiveStatus projects the document status at the given time. A
// released document whose every line end date has passed projects as
// Expired. Open and Archived are reported as stored.
func (d *LicenseDocument) EffectiveStatus(now time.Time) DocumentStatus {
	if d.Status != DocumentReleased {
		return d.Status
	}
	if len(d.Lines) == 0 {
		return DocumentReleased
	}

	today := DateOnly(now)
	for _, line := range d.Lines {
		if !today.After(line.EndDate) {
			return DocumentReleased
		}
	}
	return DocumentExpired
}

// StartDate returns the earliest line start date, derived on demand.
func (d *LicenseDocument) StartDate() (time.Time, bool) {
	var min time.Time
	for _, line := range d.Lines {
		if min.IsZero() || line.StartDate.Before(min) {
			min = line.StartDate
		}
	}
	return min, !min.IsZero()
}

// EndDate returns the latest line end date, derived on demand.
func (d *LicenseDocument) EndDate() (time.Time, bool) {
	var max time.Time
	for _, line := range d.Lines {
		if line.EndDate.After(max) {
			max = line.EndDate
		}
	}
	return max, !max.IsZero()
}

// NextLineNo returns the line number for a freshly appended line.
func (d *LicenseDocument) NextLineNo() int {
	highest := 0
	for _, line := range d.Lines {
		if line.LineNo > highest {
			highest = line.LineNo
		}
	}
	return highest + LineNoStep
}
