package http

import (
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
)

func keyInfo(k domain.CryptoKey) licsdk.KeyInfo {
	info := licsdk.KeyInfo{
		KeyID:      k.ID,
		Type:       string(k.Type),
		Algorithm:  k.Algorithm,
		Active:     k.Active,
		UsageCount: k.UsageCount,
		CreatedAt:  k.CreatedAt.Format(time.RFC3339),
		CreatedBy:  k.CreatedBy,
	}
	if k.ExpiresAt != nil {
		info.ExpiresAt = k.ExpiresAt.Format(licsdk.DateFormat)
	}
	return info
}

func licenseInfo(lic domain.License, now time.Time) licsdk.LicenseInfo {
	info := licsdk.LicenseInfo{
		LicenseID:        lic.ID,
		AppID:            lic.AppID,
		CustomerName:     lic.CustomerName,
		ValidFrom:        lic.ValidFrom.Format(licsdk.DateFormat),
		ValidTo:          lic.ValidTo.Format(licsdk.DateFormat),
		Features:         lic.Features,
		SigningKeyID:     lic.SigningKeyID,
		Status:           string(lic.Status),
		EffectiveStatus:  string(lic.EffectiveStatus(now)),
		CreatedAt:        lic.CreatedAt.Format(time.RFC3339),
		ValidationResult: lic.ValidationResult,
	}
	if lic.LastValidated != nil {
		info.LastValidated = lic.LastValidated.Format(time.RFC3339)
	}
	return info
}

func documentInfo(doc domain.LicenseDocument, now time.Time) licsdk.DocumentInfo {
	info := licsdk.DocumentInfo{
		DocumentNo:      doc.No,
		CustomerNo:      doc.CustomerNo,
		Status:          string(doc.Status),
		EffectiveStatus: string(doc.EffectiveStatus(now)),
		CreatedAt:       doc.CreatedAt.Format(time.RFC3339),
		ReleasedBy:      doc.ReleasedBy,
	}
	if doc.ReleasedAt != nil {
		info.ReleasedAt = doc.ReleasedAt.Format(time.RFC3339)
	}
	if start, ok := doc.StartDate(); ok {
		info.StartDate = start.Format(licsdk.DateFormat)
	}
	if end, ok := doc.EndDate(); ok {
		info.EndDate = end.Format(licsdk.DateFormat)
	}
	for _, line := range doc.Lines {
		info.Lines = append(info.Lines, documentLineInfo(line))
	}
	return info
}

func documentLineInfo(line domain.LicenseDocumentLine) licsdk.DocumentLineInfo {
	info := licsdk.DocumentLineInfo{
		LineNo:    line.LineNo,
		AppID:     line.AppID,
		StartDate: line.StartDate.Format(licsdk.DateFormat),
		EndDate:   line.EndDate.Format(licsdk.DateFormat),
		Features:  line.Features,
	}
	if line.GeneratedLicenseID != nil {
		info.GeneratedLicenseID = *line.GeneratedLicenseID
	}
	return info
}

// parseWireDate parses a "YYYY-MM-DD" wire date as UTC midnight. Validation
// tags guarantee the format, so errors here mean a handler skipped
// decodeRequest.
func parseWireDate(s string) time.Time {
	t, _ := time.Parse(licsdk.DateFormat, s)
	return t.UTC()
}
