package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the canonical payload published to a stream.
type Record struct {
	Type      string             `json:"type"`
	Action    enums.LedgerAction `json:"action"`
	Data      map[string]any     `json:"data"`
	Timestamp string             `json:"timestamp"`
}

var errInvalidUTF8 = errors.New("payload is not valid utf-8")

// Encode renders v as JSON and hex encodes the bytes.
func Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal ledger payload: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Decode reverses Encode into out.
func Decode(hexData string, out any) error {
	raw, err := hex.DecodeString(hexData)
	if err != nil {
		return fmt.Errorf("hex decode: %w", err)
	}
	if !utf8.Valid(raw) {
		return errInvalidUTF8
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// FormatTime is the ISO-8601 form used inside records.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Flatten coerces snapshot values to JSON scalars. Times become ISO-8601
// strings, nil values are dropped and anything else is stringified.
func Flatten(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := scalar(v); ok {
			out[k] = s
		}
	}
	return out
}

func scalar(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, true
	case time.Time:
		return FormatTime(val), true
	case *time.Time:
		if val == nil {
			return nil, false
		}
		return FormatTime(*val), true
	case *string:
		if val == nil {
			return nil, false
		}
		return *val, true
	case *int:
		if val == nil {
			return nil, false
		}
		return *val, true
	case *float64:
		if val == nil {
			return nil, false
		}
		return *val, true
	case uuid.UUID:
		return val.String(), true
	case decimal.Decimal:
		return val.String(), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}
