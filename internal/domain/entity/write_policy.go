package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned by ParseWritePolicy
var ErrUnknownPolicy = errors.New("unknown write policy")

// WritePolicy decides what happens when a day that was already stored is ingested again
type WritePolicy string

const (
	// WriteOverwrite deletes the stored day and inserts the new batch
	WriteOverwrite WritePolicy = "overwrite"
	// WriteUpsert inserts new rows and updates rows whose natural key exists
	WriteUpsert WritePolicy = "upsert"
	// WriteAppend inserts every row; re-runs create duplicates
	WriteAppend WritePolicy = "append"
)

// ParseWritePolicy accepts a policy name; empty means overwrite.
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch WritePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WriteOverwrite:
		return WriteOverwrite, nil
	case WriteUpsert:
		return WriteUpsert, nil
	case WriteAppend:
		return WriteAppend, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}
