package forward

import (
	"bytes"
	"encoding/json"
	"errors"
)

// listKeys are the object keys under which upstream list endpoints return
// their rows.
var listKeys = []string{"data", "recordset", "items"}

// WrapList reshapes an upstream list payload into {success, data, meta}.
// Accepted shapes are a bare array or an object with one of listKeys holding
// an array. Items are kept as raw JSON so values survive untouched.
func WrapList(body []byte, tenant string) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, err
		}
		found := false
		for _, key := range listKeys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			found = true
			break
		}
		if !found {
			return nil, errors.New("no list field in payload")
		}
	default:
		return nil, errors.New("payload is neither an array nor an object")
	}

	if items == nil {
		items = []json.RawMessage{}
	}
	meta := map[string]any{"count": len(items)}
	if tenant != "" {
		meta["dbName"] = tenant
	}
	return &Response{Success: true, Data: items, Meta: meta}, nil
}
