package scheduling

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Expiry classification
// ─────────────────────────────────────────────────────────────────────────────

// CertStatus classifies a certificate or equipment record by its expiry
// date.
type CertStatus string

const (
	// CertValid means the expiry lies beyond the warning band.
	CertValid CertStatus = "VALID"

	// CertExpiringSoon means the expiry falls within the warning band,
	// today and the last warning day inclusive.
	CertExpiringSoon CertStatus = "EXPIRING_SOON"

	// CertExpired means the expiry has passed.
	CertExpired CertStatus = "EXPIRED"

	// CertUnknown means no expiry date is recorded.
	CertUnknown CertStatus = "UNKNOWN"
)

// DefaultWarningDays is the look-ahead band applied when a caller does not
// override it.
const DefaultWarningDays = 60

// ClassifyExpiry grades an expiry date against today. The warning band is
// inclusive on both ends: an expiry exactly warningDays away is
// EXPIRING_SOON, one day further out is VALID. A nil expiry is UNKNOWN,
// never an error.
func ClassifyExpiry(expiry *time.Time, today time.Time, warningDays int) CertStatus {
	if expiry == nil {
		return CertUnknown
	}

	exp := NormalizeDate(*expiry)
	today = NormalizeDate(today)

	if today.After(exp) {
		return CertExpired
	}
	if d := DaysBetween(today, exp); d >= 0 && d <= warningDays {
		return CertExpiringSoon
	}
	return CertValid
}
