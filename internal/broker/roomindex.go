package broker

import "sync"

// RoomIndex maps room name -> member connection IDs, with a reverse
// connection -> rooms table so disconnect never scans every room. Rooms are
// created on first join and deleted when the last member leaves.
//
// It has its own lock, independent from the registry's; the two are never
// held at the same time.
type RoomIndex struct {
	mu          sync.Mutex
	rooms       map[string]map[string]struct{}
	memberships map[string]map[string]struct{} // connID -> rooms it belongs to
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms:       make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
	}
}

func (ri *RoomIndex) Join(connID, room string) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	members, ok := ri.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		ri.rooms[room] = members
	}
	members[connID] = struct{}{}

	joined, ok := ri.memberships[connID]
	if !ok {
		joined = make(map[string]struct{})
		ri.memberships[connID] = joined
	}
	joined[room] = struct{}{}
}

// Leave is idempotent: leaving a room the connection is not in is a no-op.
func (ri *RoomIndex) Leave(connID, room string) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	ri.leaveLocked(connID, room)
}

// LeaveAll removes the connection from every room it belongs to, pruning rooms
// that become empty. Used by disconnect.
func (ri *RoomIndex) LeaveAll(connID string) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	for room := range ri.memberships[connID] {
		ri.leaveLocked(connID, room)
	}
}

func (ri *RoomIndex) leaveLocked(connID, room string) {
	if members, ok := ri.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(ri.rooms, room)
		}
	}
	if joined, ok := ri.memberships[connID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(ri.memberships, connID)
		}
	}
}

// Members returns a snapshot copy of the room's membership.
func (ri *RoomIndex) Members(room string) []string {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	members, ok := ri.rooms[room]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// RoomsFor returns a snapshot copy of the rooms the connection belongs to.
func (ri *RoomIndex) RoomsFor(connID string) []string {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	joined, ok := ri.memberships[connID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(joined))
	for room := range joined {
		rooms = append(rooms, room)
	}
	return rooms
}

// Stats reports the current room count and total membership entries.
func (ri *RoomIndex) Stats() (rooms, members int) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	rooms = len(ri.rooms)
	for _, m := range ri.rooms {
		members += len(m)
	}
	return rooms, members
}

func (ri *RoomIndex) Len() int {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	return len(ri.rooms)
}
