// Package validator applies deterministic consistency rules to an
// extraction payload and reduces every signal to a terminal status.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/kyc-verify/internal/schema"
)

var (
	passportNumberPattern = regexp.MustCompile(`^[A-Z0-9]{6,9}$`)
	licenseNumberPattern  = regexp.MustCompile(`^[A-Z0-9-]{5,20}$`)
)

// Independent penalty weights. Penalties are summed and capped at 1.0;
// the logic score is one minus the capped total.
const (
	penaltyDateOrder   = 0.2
	penaltyBirthSanity = 0.2
	penaltyNumberShape = 0.2
	penaltyMRZMismatch = 0.3
)

// DocumentValidator scores extraction payloads and classifies the
// unified confidence score into a terminal status.
type DocumentValidator struct {
	SuccessThreshold float64
	ReviewThreshold  float64
}

// New returns a validator with the standard decision thresholds.
func New() *DocumentValidator {
	return &DocumentValidator{SuccessThreshold: 0.9, ReviewThreshold: 0.7}
}

// Assess runs the logic checks and blends model confidence, image
// quality, and logic score into the unified confidence score.
func (v *DocumentValidator) Assess(payload *schema.ExtractionPayload, imageQuality float64) schema.ValidationOutcome {
	logicScore, issues, flagged := v.logicChecks(payload)

	aiProb := clamp(payload.AIConfidence, 0, 1)
	imageScore := clamp(imageQuality/100, 0, 1)
	ucs := clamp(0.4*aiProb+0.2*imageScore+0.4*logicScore, 0, 1)

	return schema.ValidationOutcome{
		Status:        v.statusFromScore(ucs),
		UCS:           ucs,
		LogicScore:    logicScore,
		Issues:        issues,
		FlaggedFields: flagged,
	}
}

func (v *DocumentValidator) logicChecks(payload *schema.ExtractionPayload) (float64, []string, []string) {
	issues := []string{}
	flagged := []string{}
	penalties := 0.0

	doc := selectRecord(payload)
	if doc == nil {
		return 0, []string{"Missing document payload"}, []string{"document_type"}
	}

	if !doc.ExpiryDate.IsZero() && !doc.IssueDate.IsZero() && !doc.ExpiryDate.After(doc.IssueDate.Time) {
		issues = append(issues, "Expiry must be later than issue date.")
		flagged = append(flagged, "expiry_date")
		penalties += penaltyDateOrder
	}

	if !doc.BirthDate.IsZero() && !doc.ExpiryDate.IsZero() && doc.BirthDate.After(doc.ExpiryDate.Time) {
		issues = append(issues, "Birth date after expiry.")
		flagged = append(flagged, "birth_date")
		penalties += penaltyBirthSanity
	}

	if doc.DocumentNumber != nil && *doc.DocumentNumber != "" {
		switch payload.DocumentType {
		case schema.DocPassport:
			if !passportNumberPattern.MatchString(*doc.DocumentNumber) {
				issues = append(issues, "Passport number pattern mismatch.")
				flagged = append(flagged, "document_number")
				penalties += penaltyNumberShape
			}
		case schema.DocDriversLicense:
			if !licenseNumberPattern.MatchString(*doc.DocumentNumber) {
				issues = append(issues, "Driver license number pattern mismatch.")
				flagged = append(flagged, "document_number")
				penalties += penaltyNumberShape
			}
		}
	}

	if payload.DocumentType == schema.DocPassport && doc.MRZRaw != nil && *doc.MRZRaw != "" {
		if mrzIssues := crossCheckMRZ(*doc.MRZRaw, doc); len(mrzIssues) > 0 {
			issues = append(issues, mrzIssues...)
			flagged = append(flagged, "mrz_raw")
			penalties += penaltyMRZMismatch
		}
	}

	if penalties > 1 {
		penalties = 1
	}
	return 1 - penalties, issues, flagged
}

// crossCheckMRZ compares the TD3 machine readable zone against the
// visual zone fields. A plausibility check only: check digits are not
// validated here.
func crossCheckMRZ(mrzRaw string, doc *schema.DocumentRecord) []string {
	lines := strings.Split(strings.TrimSpace(mrzRaw), "\n")
	if len(lines) < 2 {
		return []string{"MRZ incomplete (expected 2+ lines)"}
	}

	line2 := strings.ReplaceAll(lines[1], " ", "")
	if len(line2) < 44 {
		return []string{"MRZ incomplete (line 2 shorter than TD3 length)"}
	}

	var issues []string
	mrzDocNum := strings.TrimRight(line2[0:9], "<")
	mrzBirth := line2[13:19]
	mrzExpiry := line2[21:27]

	if doc.DocumentNumber != nil && *doc.DocumentNumber != "" && mrzDocNum != "" {
		prefix := mrzDocNum
		if len(prefix) > 6 {
			prefix = prefix[:6]
		}
		if !strings.HasPrefix(*doc.DocumentNumber, prefix) {
			issues = append(issues, fmt.Sprintf("MRZ doc# mismatch: visual=%s, MRZ=%s", *doc.DocumentNumber, mrzDocNum))
		}
	}

	if !doc.BirthDate.IsZero() {
		if visual := doc.BirthDate.Format("060102"); visual != mrzBirth {
			issues = append(issues, fmt.Sprintf("MRZ birth mismatch: visual=%s, MRZ=%s", visual, mrzBirth))
		}
	}

	if !doc.ExpiryDate.IsZero() {
		if visual := doc.ExpiryDate.Format("060102"); visual != mrzExpiry {
			issues = append(issues, fmt.Sprintf("MRZ expiry mismatch: visual=%s, MRZ=%s", visual, mrzExpiry))
		}
	}

	return issues
}

// mrzCharValue maps an MRZ character to its check-digit weight value.
// Check digits are intentionally not validated by the cross-check; the
// helper covers the alphabet should that ever change.
func mrzCharValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c == '<':
		return 0
	default:
		return int(c-'A') + 10
	}
}

// selectRecord picks the sub-record matching the declared document
// type, preferring the passport when the type is unknown.
func selectRecord(payload *schema.ExtractionPayload) *schema.DocumentRecord {
	switch payload.DocumentType {
	case schema.DocPassport:
		if payload.Passport != nil {
			return &payload.Passport.DocumentRecord
		}
		return nil
	case schema.DocDriversLicense:
		if payload.DriversLicense != nil {
			return &payload.DriversLicense.DocumentRecord
		}
		return nil
	}
	if payload.Passport != nil {
		return &payload.Passport.DocumentRecord
	}
	if payload.DriversLicense != nil {
		return &payload.DriversLicense.DocumentRecord
	}
	return nil
}

func (v *DocumentValidator) statusFromScore(ucs float64) schema.Status {
	switch {
	case ucs >= v.SuccessThreshold:
		return schema.StatusSuccess
	case ucs >= v.ReviewThreshold:
		return schema.StatusManualReview
	default:
		return schema.StatusRetryUpload
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
