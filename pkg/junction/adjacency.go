package junction

// acceptedHighways lists highway tag values considered road junctions.
// Pedestrian and cycle infrastructure is excluded.
var acceptedHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"residential":    true,
	"unclassified":   true,
	"service":        true,
}

// AcceptedHighway returns true if the highway tag value admits the way
// into the adjacency index.
func AcceptedHighway(value string) bool {
	return acceptedHighways[value]
}

// Candidate is a node incident to exactly three admitted ways.
type Candidate struct {
	NodeID int64
	WayIDs []int64
}

// NeighborRoad is the node adjacent to a junction along one incident way,
// together with that way's bridge/tunnel flags.
type NeighborRoad struct {
	NodeID int64
	Bridge bool
	Tunnel bool
}

type wayTags struct {
	bridge bool
	tunnel bool
}

// Adjacency maps nodes to the admitted ways that reference them. It grows
// monotonically during the way pass and is read-only afterwards.
type Adjacency struct {
	nodeWays map[int64][]int64
	wayNodes map[int64][]int64
	tags     map[int64]wayTags
}

func NewAdjacency() *Adjacency {
	return &Adjacency{
		nodeWays: make(map[int64][]int64),
		wayNodes: make(map[int64][]int64),
		tags:     make(map[int64]wayTags),
	}
}

// AddWay records a way's ordered node list and flags. Repeated calls with
// the same way id are idempotent; a way visiting a node twice counts once
// toward that node's degree.
func (a *Adjacency) AddWay(wayID int64, nodeIDs []int64, bridge, tunnel bool) {
	if _, ok := a.wayNodes[wayID]; ok {
		return
	}
	nodes := make([]int64, len(nodeIDs))
	copy(nodes, nodeIDs)
	a.wayNodes[wayID] = nodes
	a.tags[wayID] = wayTags{bridge: bridge, tunnel: tunnel}

	for _, nodeID := range nodeIDs {
		if !containsWay(a.nodeWays[nodeID], wayID) {
			a.nodeWays[nodeID] = append(a.nodeWays[nodeID], wayID)
		}
	}
}

func containsWay(ways []int64, wayID int64) bool {
	for _, w := range ways {
		if w == wayID {
			return true
		}
	}
	return false
}

// WayCount returns the number of admitted ways.
func (a *Adjacency) WayCount() int { return len(a.wayNodes) }

// NodeCount returns the number of distinct nodes referenced by admitted ways.
func (a *Adjacency) NodeCount() int { return len(a.nodeWays) }

// Degree returns the number of admitted ways incident to the node.
func (a *Adjacency) Degree(nodeID int64) int { return len(a.nodeWays[nodeID]) }

// Candidates returns every node whose way set has cardinality exactly three.
// Way order within a candidate is the insertion order for this index.
func (a *Adjacency) Candidates() []Candidate {
	var candidates []Candidate
	for nodeID, ways := range a.nodeWays {
		if len(ways) != 3 {
			continue
		}
		wayIDs := make([]int64, 3)
		copy(wayIDs, ways)
		candidates = append(candidates, Candidate{NodeID: nodeID, WayIDs: wayIDs})
	}
	return candidates
}

// Neighbor returns the node adjacent to the junction along the way: the one
// after the junction's first occurrence in the way's node list, or the one
// before it when the junction is the last node.
func (a *Adjacency) Neighbor(wayID, junctionNodeID int64) (int64, bool) {
	nodes, ok := a.wayNodes[wayID]
	if !ok {
		return 0, false
	}
	for i, id := range nodes {
		if id != junctionNodeID {
			continue
		}
		if i+1 < len(nodes) {
			return nodes[i+1], true
		}
		if i > 0 {
			return nodes[i-1], true
		}
		return 0, false
	}
	return 0, false
}

// NeighborRoads returns the neighbor selection for each way incident to the
// junction, positionally parallel to the candidate's way ids. Ways where no
// neighbor can be selected are omitted, so a caller requiring all three
// roads checks the returned length.
func (a *Adjacency) NeighborRoads(junctionNodeID int64) []NeighborRoad {
	var roads []NeighborRoad
	for _, wayID := range a.nodeWays[junctionNodeID] {
		neighborID, ok := a.Neighbor(wayID, junctionNodeID)
		if !ok {
			continue
		}
		t := a.tags[wayID]
		roads = append(roads, NeighborRoad{
			NodeID: neighborID,
			Bridge: t.bridge,
			Tunnel: t.tunnel,
		})
	}
	return roads
}
