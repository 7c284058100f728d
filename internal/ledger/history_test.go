package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/multichain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexItem(t *testing.T, txid string, nodeTime int64, payload any) multichain.StreamItem {
	t.Helper()
	encoded, err := Encode(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(encoded)
	require.NoError(t, err)
	return multichain.StreamItem{TxID: txid, Data: raw, Time: nodeTime}
}

func rawItem(txid, data string) multichain.StreamItem {
	return multichain.StreamItem{TxID: txid, Data: json.RawMessage(data), Time: 1}
}

func record(action, ts string, data map[string]any) map[string]any {
	return map[string]any{"type": "order", "action": action, "timestamp": ts, "data": data}
}

func TestMergeSortsByRecordTimestamp(t *testing.T) {
	creates := []multichain.StreamItem{
		hexItem(t, "c1", 100, record("create", "2024-05-01T10:00:00Z", map[string]any{"status": "NEW"})),
	}
	updates := []multichain.StreamItem{
		hexItem(t, "u2", 90, record("update", "2024-05-03T10:00:00Z", map[string]any{"status": "DELIVERED"})),
		hexItem(t, "u1", 80, record("update", "2024-05-02T10:00:00Z", map[string]any{"status": "CONFIRMED"})),
	}

	entries, dropped := Merge(creates, updates, time.Now())
	require.Empty(t, dropped)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"c1", "u1", "u2"}, []string{entries[0].TransactionHash, entries[1].TransactionHash, entries[2].TransactionHash})
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "CONFIRMED", entries[1].Details["status"])
	assert.Equal(t, "2024-05-03T10:00:00Z", entries[2].Timestamp)
}

func TestMergeDropsMalformedEntries(t *testing.T) {
	good := hexItem(t, "ok", 10, record("create", "2024-05-01T10:00:00Z", map[string]any{"id": "1"}))
	items := []multichain.StreamItem{
		good,
		rawItem("not-hex", `"zz-not-hex"`),
		rawItem("offchain", `{"txid":"offchain","vout":0}`),
		rawItem("empty", `""`),
		hexItem(t, "array", 10, []int{1, 2}),
		hexItem(t, "scalar-data", 10, map[string]any{"action": "update", "data": "oops"}),
		{TxID: "nil-data"},
	}

	entries, dropped := Merge(items, nil, time.Now())
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].TransactionHash)
	assert.Len(t, dropped, 6)
}

func TestMergeFallsBackToWholeRecordAndNodeTime(t *testing.T) {
	legacy := map[string]any{"product_id": "p1", "name": "Serum"}
	entries, dropped := Merge([]multichain.StreamItem{hexItem(t, "p", 1714560000, legacy)}, nil, time.Now())
	require.Empty(t, dropped)
	require.Len(t, entries, 1)
	assert.Equal(t, "unknown", entries[0].Action)
	assert.Equal(t, legacy, entries[0].Details)
	assert.Equal(t, "2024-05-01T10:40:00Z", entries[0].Timestamp)
}

func TestMergeAcceptsZonelessTimestamps(t *testing.T) {
	entries, _ := Merge(nil, []multichain.StreamItem{
		hexItem(t, "b", 0, record("update", "2024-05-02T08:00:00.123456", map[string]any{})),
		hexItem(t, "a", 0, record("update", "2024-05-01T08:00:00", map[string]any{})),
	}, time.Now())
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].TransactionHash)
	assert.Equal(t, "2024-05-02T08:00:00.123456Z", entries[1].Timestamp)
}

func TestMergeStableForEqualTimestampsAndDedupes(t *testing.T) {
	ts := "2024-05-01T10:00:00Z"
	c := hexItem(t, "create", 5, record("create", ts, map[string]any{}))
	u := hexItem(t, "update", 5, record("update", ts, map[string]any{}))

	entries, _ := Merge([]multichain.StreamItem{c}, []multichain.StreamItem{u, u}, time.Now())
	require.Len(t, entries, 2)
	assert.Equal(t, "create", entries[0].TransactionHash)
	assert.Equal(t, "update", entries[1].TransactionHash)
}

func TestMergeEmpty(t *testing.T) {
	entries, dropped := Merge(nil, nil, time.Now())
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Empty(t, dropped)
}
