package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/angelmondragon/trustchain-backend/pkg/multichain"
)

// Entry is one reconstructed step of an order's history.
type Entry struct {
	TransactionHash string         `json:"transaction_hash"`
	Timestamp       string         `json:"timestamp"`
	Action          string         `json:"action"`
	Details         map[string]any `json:"details"`

	at time.Time
}

// Dropped describes an item that could not be turned into an Entry.
type Dropped struct {
	TxID   string
	Reason string
}

// Merge decodes creation and update items into one history sorted by the
// record timestamp. Items that fail to decode are reported in dropped and left
// out. Equal timestamps keep creation entries ahead of updates.
func Merge(creates, updates []multichain.StreamItem, now time.Time) ([]Entry, []Dropped) {
	items := make([]multichain.StreamItem, 0, len(creates)+len(updates))
	items = append(items, creates...)
	items = append(items, updates...)

	entries := make([]Entry, 0, len(items))
	var dropped []Dropped
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.TxID != "" {
			if _, dup := seen[item.TxID]; dup {
				continue
			}
			seen[item.TxID] = struct{}{}
		}
		entry, err := decodeItem(item, now)
		if err != nil {
			dropped = append(dropped, Dropped{TxID: item.TxID, Reason: err.Error()})
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.Before(entries[j].at)
	})
	return entries, dropped
}

func decodeItem(item multichain.StreamItem, now time.Time) (Entry, error) {
	hexData, ok := item.HexData()
	if !ok {
		return Entry{}, fmt.Errorf("item data is not an inline hex string")
	}

	var parsed map[string]any
	if err := Decode(hexData, &parsed); err != nil {
		return Entry{}, err
	}
	if parsed == nil {
		return Entry{}, fmt.Errorf("record is not an object")
	}

	details := parsed
	if raw, present := parsed["data"]; present {
		obj, isObj := raw.(map[string]any)
		if !isObj {
			return Entry{}, fmt.Errorf("record data is %T, want object", raw)
		}
		details = obj
	}

	action := enums.LedgerActionUnknown.String()
	if a, ok := parsed["action"].(string); ok && a != "" {
		action = a
	}

	at := nodeTime(item, now)
	if ts, ok := parsed["timestamp"].(string); ok {
		if embedded, err := parseTimestamp(ts); err == nil {
			at = embedded
		}
	}

	return Entry{
		TransactionHash: item.TxID,
		Timestamp:       FormatTime(at),
		Action:          action,
		Details:         details,
		at:              at,
	}, nil
}

func nodeTime(item multichain.StreamItem, now time.Time) time.Time {
	if ts := item.Timestamp(); ts > 0 {
		return time.Unix(ts, 0).UTC()
	}
	return now.UTC()
}

// parseTimestamp accepts RFC 3339 and the zone-less ISO form older records carry.
func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", v)
}

// itemFromTxOut adapts a gettxoutdata result to a stream item.
func itemFromTxOut(txid string, data json.RawMessage) multichain.StreamItem {
	return multichain.StreamItem{TxID: txid, Data: data}
}
