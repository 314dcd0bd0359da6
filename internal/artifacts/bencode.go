package artifacts

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// encodeBencode writes v in bencode form. Supported values are strings,
// byte slices, integers, []any lists, and map[string]any dictionaries.
// Dictionary keys are emitted in sorted order as the format requires.
func encodeBencode(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case string:
		buf.WriteString(strconv.Itoa(len(value)))
		buf.WriteByte(':')
		buf.WriteString(value)
	case []byte:
		buf.WriteString(strconv.Itoa(len(value)))
		buf.WriteByte(':')
		buf.Write(value)
	case int:
		buf.WriteByte('i')
		buf.WriteString(strconv.Itoa(value))
		buf.WriteByte('e')
	case int64:
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatInt(value, 10))
		buf.WriteByte('e')
	case []any:
		buf.WriteByte('l')
		for _, item := range value {
			if err := encodeBencode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('d')
		for _, key := range keys {
			if err := encodeBencode(buf, key); err != nil {
				return err
			}
			if err := encodeBencode(buf, value[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	default:
		return fmt.Errorf("bencode: unsupported type %T", v)
	}
	return nil
}

// pieceSizeExponent picks a piece size targeting roughly 1500 to 2200 pieces,
// which is what the tracker recommends.
func pieceSizeExponent(totalBytes int64) uint {
	sizeMB := totalBytes / (1 << 20)
	switch {
	case sizeMB < 50:
		return 15 // 32 KB
	case sizeMB < 150:
		return 16 // 64 KB
	case sizeMB < 350:
		return 17 // 128 KB
	case sizeMB < 512:
		return 18 // 256 KB
	case sizeMB < 1024:
		return 19 // 512 KB
	case sizeMB < 2048:
		return 20 // 1 MB
	case sizeMB < 4096:
		return 21 // 2 MB
	case sizeMB < 8192:
		return 22 // 4 MB
	case sizeMB < 16384:
		return 23 // 8 MB
	default:
		return 24 // 16 MB
	}
}
