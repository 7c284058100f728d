package ledger

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	events := []map[string]any{
		{},
		{"type": "order", "action": "create", "data": map[string]any{"id": "o-1", "qty": float64(2)}, "timestamp": "2024-05-01T10:00:00Z"},
		{"unicode": "crème – 日本", "nested": []any{true, nil, "x"}},
	}
	for _, ev := range events {
		encoded, err := Encode(ev)
		require.NoError(t, err)
		_, err = hex.DecodeString(encoded)
		require.NoError(t, err, "encoding must be plain hex")

		var decoded map[string]any
		require.NoError(t, Decode(encoded, &decoded))
		assert.Equal(t, ev, decoded)
	}
}

func TestDecodeIsByteExact(t *testing.T) {
	payload := `{"a":1}`
	var out map[string]any
	require.NoError(t, Decode(hex.EncodeToString([]byte(payload)), &out))
	assert.Equal(t, map[string]any{"a": float64(1)}, out)

	encoded, err := Encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString([]byte(payload)), encoded)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	var out map[string]any
	assert.Error(t, Decode("zz", &out))
	assert.Error(t, Decode(hex.EncodeToString([]byte{0xff, 0xfe}), &out))
	assert.Error(t, Decode(hex.EncodeToString([]byte("not json")), &out))
}

func TestFlattenCoercesValues(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 500, time.FixedZone("x", 3600))
	days := 4
	var missing *string
	id := uuid.New()

	got := Flatten(map[string]any{
		"created_at": at,
		"updated_at": &at,
		"days":       &days,
		"notes":      missing,
		"id":         id,
		"price":      decimal.RequireFromString("19.90"),
		"status":     enums.OrderStatusConfirmed,
		"flag":       true,
		"ratio":      1.5,
		"nil":        nil,
		"custom":     []int{1, 2},
	})

	assert.Equal(t, "2024-05-01T11:30:00.0000005Z", got["created_at"])
	assert.Equal(t, got["created_at"], got["updated_at"])
	assert.Equal(t, 4, got["days"])
	assert.NotContains(t, got, "notes")
	assert.NotContains(t, got, "nil")
	assert.Equal(t, id.String(), got["id"])
	assert.Equal(t, "19.9", got["price"])
	assert.Equal(t, "CONFIRMED", got["status"])
	assert.Equal(t, true, got["flag"])
	assert.Equal(t, 1.5, got["ratio"])
	assert.Equal(t, "[1 2]", got["custom"])
}

func TestKeys(t *testing.T) {
	at := time.Unix(1714560000, 123456789)
	assert.Equal(t, "order_42", CreateKey(kindOrder, "42"))
	assert.Equal(t, "order_42_update", UpdatePrefix(kindOrder, "42"))
	key := UpdateKey(kindOrder, "42", at)
	assert.Equal(t, "order_42_update_1714560000.123456", key)
	assert.True(t, strings.HasPrefix(key, UpdatePrefix(kindOrder, "42")))
	assert.NotEqual(t, key, UpdateKey(kindOrder, "42", at.Add(time.Microsecond)))
}
