package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeList reads either a bare JSON array or a {"data": [...]} envelope.
// The result is never nil.
func DecodeList[T any](resp *Response) ([]T, error) {
	if resp == nil {
		return []T{}, ErrEmptyBody
	}
	raw := bytes.TrimSpace(resp.Body)
	if len(raw) == 0 {
		return []T{}, ErrEmptyBody
	}
	var out []T
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return []T{}, fmt.Errorf("backend: decode list: %w", err)
		}
	} else {
		var env struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return []T{}, fmt.Errorf("backend: decode list: %w", err)
		}
		out = env.Data
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
