// Package schema defines the structured payload the vision model is
// asked to produce, plus the lenient decoding rules applied to it.
package schema

import (
	"encoding/json"
	"fmt"
)

// DocumentType identifies which sub-record carries the authoritative fields.
type DocumentType string

const (
	DocPassport       DocumentType = "passport"
	DocDriversLicense DocumentType = "drivers_license"
	DocUnknown        DocumentType = "unknown"
)

// Evidence ties an extracted field back to the source image.
type Evidence struct {
	Snippet *string `json:"snippet"`
	// BBox is normalized [x1, y1, x2, y2].
	BBox []float64 `json:"bbox"`
}

// DocumentRecord holds the fields shared by every identity document.
type DocumentRecord struct {
	FullName       *string              `json:"full_name"`
	BirthDate      Date                 `json:"birth_date"`
	DocumentNumber *string              `json:"document_number"`
	IssueDate      Date                 `json:"issue_date"`
	ExpiryDate     Date                 `json:"expiry_date"`
	Nationality    *string              `json:"nationality"`
	MRZRaw         *string              `json:"mrz_raw"`
	Evidence       map[string]*Evidence `json:"evidence"`
}

// PassportRecord is a passport's visual zone plus its type code.
type PassportRecord struct {
	DocumentRecord
	PassportType *string `json:"passport_type"`
}

// LicenseRecord is a driver's license with its class and holder address.
type LicenseRecord struct {
	DocumentRecord
	LicenseClass *string `json:"license_class"`
	Address      *string `json:"address"`
}

// ExtractionPayload is the structured result of a model extraction.
type ExtractionPayload struct {
	DocumentType   DocumentType    `json:"document_type"`
	AIConfidence   float64         `json:"ai_confidence"`
	MissingFields  []string        `json:"missing_fields"`
	Passport       *PassportRecord `json:"passport"`
	DriversLicense *LicenseRecord  `json:"drivers_license"`
	RawText        *string         `json:"raw_text"`
}

// DecodePayload unmarshals a coerced model answer and validates it.
// Defaults mirror the schema sent to the model: confidence 0.5 when
// omitted, document type unknown, empty missing-field list.
func DecodePayload(raw []byte) (*ExtractionPayload, error) {
	var aux struct {
		DocumentType   *string         `json:"document_type"`
		AIConfidence   *float64        `json:"ai_confidence"`
		MissingFields  []string        `json:"missing_fields"`
		Passport       *PassportRecord `json:"passport"`
		DriversLicense *LicenseRecord  `json:"drivers_license"`
		RawText        *string         `json:"raw_text"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}

	payload := &ExtractionPayload{
		DocumentType:   DocUnknown,
		AIConfidence:   0.5,
		MissingFields:  aux.MissingFields,
		Passport:       aux.Passport,
		DriversLicense: aux.DriversLicense,
		RawText:        aux.RawText,
	}
	if payload.MissingFields == nil {
		payload.MissingFields = []string{}
	}

	if aux.DocumentType != nil && *aux.DocumentType != "" {
		switch DocumentType(*aux.DocumentType) {
		case DocPassport, DocDriversLicense, DocUnknown:
			payload.DocumentType = DocumentType(*aux.DocumentType)
		default:
			return nil, fmt.Errorf("invalid document_type %q", *aux.DocumentType)
		}
	}

	if aux.AIConfidence != nil {
		if *aux.AIConfidence < 0 || *aux.AIConfidence > 1 {
			return nil, fmt.Errorf("ai_confidence %v outside [0, 1]", *aux.AIConfidence)
		}
		payload.AIConfidence = *aux.AIConfidence
	}

	if payload.Passport != nil {
		payload.Passport.Evidence = cleanEvidence(payload.Passport.Evidence)
	}
	if payload.DriversLicense != nil {
		payload.DriversLicense.Evidence = cleanEvidence(payload.DriversLicense.Evidence)
	}
	return payload, nil
}

// cleanEvidence drops null entries the model sometimes emits for fields
// it could not locate.
func cleanEvidence(evidence map[string]*Evidence) map[string]*Evidence {
	cleaned := make(map[string]*Evidence, len(evidence))
	for field, ev := range evidence {
		if ev != nil {
			cleaned[field] = ev
		}
	}
	return cleaned
}
