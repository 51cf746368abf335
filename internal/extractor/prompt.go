package extractor

// systemPrompt fixes the output discipline before the model sees the image.
const systemPrompt = "You are a KYC document parser. Return strict JSON only. " +
	"If a field is unreadable, set it to null and add it to missing_fields."

// userPrompt asks for the verification-relevant extras alongside the fields.
const userPrompt = "Extract passport or driver's license fields into the provided schema. " +
	"Return ai_confidence, missing_fields, evidence, mrz_raw. " +
	"Do not add commentary."

// payloadSchema is the machine-readable shape of the expected answer,
// embedded as a text part of every request.
const payloadSchema = `{
  "type": "object",
  "properties": {
    "document_type": {
      "type": "string",
      "enum": ["passport", "drivers_license", "unknown"]
    },
    "ai_confidence": {
      "type": "number",
      "minimum": 0.0,
      "maximum": 1.0
    },
    "missing_fields": {
      "type": "array",
      "items": {"type": "string"}
    },
    "passport": {
      "type": ["object", "null"],
      "properties": {
        "full_name": {"type": ["string", "null"]},
        "birth_date": {"type": ["string", "null"], "description": "Calendar date, e.g. 1990-05-17"},
        "document_number": {"type": ["string", "null"]},
        "issue_date": {"type": ["string", "null"]},
        "expiry_date": {"type": ["string", "null"]},
        "nationality": {"type": ["string", "null"]},
        "passport_type": {"type": ["string", "null"]},
        "mrz_raw": {"type": ["string", "null"], "description": "Machine readable zone lines, verbatim"},
        "evidence": {
          "type": "object",
          "additionalProperties": {
            "type": ["object", "null"],
            "properties": {
              "snippet": {"type": ["string", "null"]},
              "bbox": {
                "type": ["array", "null"],
                "items": {"type": "number"},
                "description": "Normalized [x1, y1, x2, y2]"
              }
            }
          }
        }
      }
    },
    "drivers_license": {
      "type": ["object", "null"],
      "properties": {
        "full_name": {"type": ["string", "null"]},
        "birth_date": {"type": ["string", "null"]},
        "document_number": {"type": ["string", "null"]},
        "issue_date": {"type": ["string", "null"]},
        "expiry_date": {"type": ["string", "null"]},
        "nationality": {"type": ["string", "null"]},
        "license_class": {"type": ["string", "null"]},
        "address": {"type": ["string", "null"]},
        "mrz_raw": {"type": ["string", "null"]},
        "evidence": {
          "type": "object",
          "additionalProperties": {
            "type": ["object", "null"],
            "properties": {
              "snippet": {"type": ["string", "null"]},
              "bbox": {"type": ["array", "null"], "items": {"type": "number"}}
            }
          }
        }
      }
    },
    "raw_text": {"type": ["string", "null"]}
  },
  "required": ["document_type", "ai_confidence", "missing_fields"]
}`
