package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomIndex_JoinAndMembers(t *testing.T) {
	ri := NewRoomIndex()

	ri.Join("c1", "r1")
	ri.Join("c2", "r1")
	ri.Join("c1", "r2")

	assert.ElementsMatch(t, []string{"c1", "c2"}, ri.Members("r1"))
	assert.ElementsMatch(t, []string{"c1"}, ri.Members("r2"))
	assert.ElementsMatch(t, []string{"r1", "r2"}, ri.RoomsFor("c1"))
	assert.ElementsMatch(t, []string{"r1"}, ri.RoomsFor("c2"))
	assert.Empty(t, ri.Members("unknown"))
}

func TestRoomIndex_LeaveIdempotent(t *testing.T) {
	ri := NewRoomIndex()

	ri.Join("c1", "r1")

	ri.Leave("c1", "never-joined")
	ri.Leave("c2", "r1")
	assert.ElementsMatch(t, []string{"c1"}, ri.Members("r1"))

	ri.Leave("c1", "r1")
	ri.Leave("c1", "r1")
	assert.Empty(t, ri.Members("r1"))
	assert.Empty(t, ri.RoomsFor("c1"))
}

func TestRoomIndex_EmptyRoomPruned(t *testing.T) {
	ri := NewRoomIndex()

	ri.Join("c1", "r1")
	ri.Join("c2", "r1")
	assert.Equal(t, 1, ri.Len())

	ri.Leave("c1", "r1")
	assert.Equal(t, 1, ri.Len())

	ri.Leave("c2", "r1")
	assert.Equal(t, 0, ri.Len(), "last leave must remove the room entry itself")
}

func TestRoomIndex_LeaveAll(t *testing.T) {
	ri := NewRoomIndex()

	ri.Join("c1", "r1")
	ri.Join("c1", "r2")
	ri.Join("c2", "r1")

	ri.LeaveAll("c1")

	assert.Empty(t, ri.RoomsFor("c1"))
	assert.ElementsMatch(t, []string{"c2"}, ri.Members("r1"))
	assert.Equal(t, 1, ri.Len(), "r2 became empty and must be pruned")

	// no-op for an unknown connection
	ri.LeaveAll("c3")
}

func TestRoomIndex_Stats(t *testing.T) {
	ri := NewRoomIndex()

	rooms, members := ri.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, members)

	ri.Join("c1", "r1")
	ri.Join("c2", "r1")
	ri.Join("c3", "r2")

	rooms, members = ri.Stats()
	assert.Equal(t, 2, rooms)
	assert.Equal(t, 3, members)
}

func TestRoomIndex_SnapshotIsCopy(t *testing.T) {
	ri := NewRoomIndex()

	ri.Join("c1", "r1")
	snapshot := ri.Members("r1")
	ri.Join("c2", "r1")

	assert.Len(t, snapshot, 1, "snapshot must not reflect later joins")
}
