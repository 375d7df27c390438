package core

import "encoding/json"

// DestinationRequiredMessage is the fixed user-facing text returned when an
// outbound send has no routable destination. Hosts match on it verbatim.
const DestinationRequiredMessage = "to field  required, either of kind person or room. person will be used if kind is not set."

// MarshalResult serializes v, falling back to an empty object so a result
// is always returned.
func MarshalResult(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}

// ErrorResult renders {"ok":false,"error":message}.
func ErrorResult(message string) []byte {
	return MarshalResult(map[string]any{
		"ok":    false,
		"error": message,
	})
}

func ErrorResultFrom(err error) []byte {
	return ErrorResult(ErrorMessage(err))
}

// OKResult renders {"ok":true} merged with fields.
func OKResult(fields map[string]any) []byte {
	out := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		out[key] = value
	}
	out["ok"] = true
	return MarshalResult(out)
}

// DestinationRequiredResult is the distinguished non-retryable failure for a
// send without a resolvable destination. It carries "message", not "error".
func DestinationRequiredResult() []byte {
	return MarshalResult(map[string]any{
		"ok":        false,
		"retryable": false,
		"message":   DestinationRequiredMessage,
	})
}

// ResultOK reports the "ok" flag of a JSON result.
func ResultOK(raw []byte) bool {
	var decoded struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return false
	}
	return decoded.OK
}

// ResultMessage extracts the human readable failure text of a JSON result,
// preferring "error" over "message".
func ResultMessage(raw []byte) string {
	var decoded struct {
		Error   *string `json:"error"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ""
	}
	if decoded.Error != nil {
		return *decoded.Error
	}
	if decoded.Message != nil {
		return *decoded.Message
	}
	return ""
}
