package behavior

import "github.com/milk9111/aibehavior/common"

// staleDistance is how far (Manhattan, in tiles) a goal may drift from the
// goal a cached path was computed for before the path is recomputed.
const staleDistance = 4

// NavResult is what one navigation step reported.
type NavResult uint8

const (
	NavFollowing NavResult = iota
	NavReached
	NavStuck
	NavHardStuck
	NavNotFound
)

func (r NavResult) String() string {
	switch r {
	case NavFollowing:
		return "following"
	case NavReached:
		return "reached"
	case NavStuck:
		return "stuck"
	case NavHardStuck:
		return "hard_stuck"
	case NavNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// navigator is a path-follow session bound to one owner.
type navigator struct {
	env      *Env
	owner    Actor
	follower PathFollower
}

func newNavigator(env *Env, owner Actor) navigator {
	return navigator{env: env, owner: owner, follower: env.follower()}
}

func (n *navigator) hasPath() bool {
	return n.follower != nil && n.follower.HasPath()
}

// stale reports whether a new path is needed to reach goal.
func (n *navigator) stale(goal common.Tile) bool {
	if !n.hasPath() {
		return true
	}
	return common.Manhattan(n.follower.TargetTile(), goal) >= staleDistance
}

// request searches a fresh path on the owner's floor and binds it.
func (n *navigator) request(goal common.Tile) bool {
	if n.follower == nil || n.env.Scene == nil {
		return false
	}
	floor := n.owner.Floor()
	searcher := n.env.Scene.Searcher(floor)
	if searcher == nil {
		return false
	}
	obstacles := n.env.Scene.Obstacles(floor)
	path := searcher.FindPath(n.owner.Tile(), goal, n.owner, obstacles)
	if path.State != PathFound {
		n.follower.ResetPath()
		return false
	}
	n.follower.Setup(n.owner, path, obstacles)
	return true
}

// moveTo follows toward goal, recomputing the path when it is missing or stale.
func (n *navigator) moveTo(goal common.Tile, dt float64) NavResult {
	if n.stale(goal) && !n.request(goal) {
		return NavNotFound
	}
	return n.follow(dt)
}

func (n *navigator) follow(dt float64) NavResult {
	if !n.hasPath() {
		return NavNotFound
	}
	switch n.follower.Follow(dt) {
	case FollowReached:
		return NavReached
	case FollowStuck:
		return NavStuck
	case FollowHardStuck:
		return NavHardStuck
	default:
		return NavFollowing
	}
}

func (n *navigator) reset() {
	if n.follower != nil {
		n.follower.ResetPath()
	}
}
