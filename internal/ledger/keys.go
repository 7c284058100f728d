package ledger

import (
	"fmt"
	"time"
)

const (
	kindProduct = "product"
	kindOrder   = "order"
)

// CreateKey is the key of an entity's creation record.
func CreateKey(kind, id string) string {
	return fmt.Sprintf("%s_%s", kind, id)
}

// UpdatePrefix is shared by every update key of an entity. Updates are also
// published under it so a single key lookup returns all of them.
func UpdatePrefix(kind, id string) string {
	return CreateKey(kind, id) + "_update"
}

// UpdateKey is unique per update: the unix time with microseconds.
func UpdateKey(kind, id string, at time.Time) string {
	return fmt.Sprintf("%s_%d.%06d", UpdatePrefix(kind, id), at.Unix(), at.Nanosecond()/int(time.Microsecond))
}
