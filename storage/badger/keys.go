package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/rankfuse/core"
)

// Key prefixes for different data types
const (
	memoryItemPrefix   = "memrec"
	memoryRewardPrefix = "memrew"
	vectorRecordPrefix = "vecrec"
)

// makeMemoryItemKey generates a key for a memory item by ID.
func makeMemoryItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", memoryItemPrefix, id))
}

// makeRewardIndexKey generates a composite key for the reward index.
// Format: prefix:invReward:id where invReward inverts the reward mean so
// lexicographic iteration yields highest rewards first.
func makeRewardIndexKey(rewardMean float64, id core.ID) []byte {
	prefix := memoryRewardPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	// Rewards live in [0,1]; scale and invert for ascending key order
	scaled := uint64((1.0 - clampUnit(rewardMean)) * 1e9)
	binary.BigEndian.PutUint64(buf[offset:], scaled)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// makeVectorRecordKey generates a key for a vector record by ID.
func makeVectorRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", vectorRecordPrefix, id))
}
