package crypto

import "encoding/json"

// EncryptTree walks a JSON-shaped value and replaces every scalar leaf with
// ciphertext. Lists keep their order and length, maps keep their exact key
// set (key names are never encrypted), nil passes through. Values that are
// not JSON scalars or containers are returned unchanged.
func EncryptTree(v any, c *Cipher) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, float64, float32, int, int32, int64:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return c.EncryptString(string(raw))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			enc, err := EncryptTree(item, c)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			enc, err := EncryptTree(item, c)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	default:
		return v, nil
	}
}

// DecryptTree walks a JSON-shaped value and recovers the scalars EncryptTree
// replaced. A string leaf that does not decrypt and parse back to a scalar is
// returned as-is: documents legitimately mix encrypted and plaintext fields
// (legacy rows, fields written before encryption was introduced), so the
// fallthrough is a documented branch rather than an error.
func DecryptTree(v any, c *Cipher) any {
	switch val := v.(type) {
	case string:
		plain, err := c.DecryptString(val)
		if err != nil {
			return val
		}
		var out any
		if err := json.Unmarshal([]byte(plain), &out); err != nil {
			return val
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DecryptTree(item, c)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = DecryptTree(item, c)
		}
		return out
	default:
		return v
	}
}
