package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// nodes caches one generator per node id.
var (
	nodeMu sync.Mutex
	nodes  = map[int64]*snowflake.Node{}
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID generates a snowflake ID string using a node ID from
// the environment variable SNOWFLAKE_NODE. If node setup fails it falls
// back to generating a KSUID string so an ID is always returned.
func NewSnowflakeID() string {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		// default to node 1 when not provided so snowflake IDs are still produced
		return NewSnowflakeIDWithNode(1)
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		// fall back to the default node instead of KSUID
		return NewSnowflakeIDWithNode(1)
	}
	return NewSnowflakeIDWithNode(nodeID)
}

// NewSnowflakeIDWithNode generates a snowflake ID string using the provided node ID.
// If the node cannot be initialized, it falls back to a KSUID string.
//
// Nodes are cached: a fresh node per call would restart the sequence and
// hand out duplicates within the same millisecond.
func NewSnowflakeIDWithNode(nodeID int64) string {
	nodeMu.Lock()
	defer nodeMu.Unlock()
	node, ok := nodes[nodeID]
	if !ok {
		var err error
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			// out-of-range node ids (snowflake allows 0-1023)
			return NewKSUID()
		}
		nodes[nodeID] = node
	}
	return node.Generate().String()
}
