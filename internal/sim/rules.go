package sim

import (
	"github.com/freeeve/hexwar/api/internal/danger"
	"github.com/freeeve/hexwar/api/pkg/world"
)

var (
	_ danger.World           = (*world.State)(nil)
	_ danger.Reachability    = (*Pathfinder)(nil)
	_ danger.Targeting       = (*Targeting)(nil)
	_ danger.Visibility      = (*Vision)(nil)
	_ danger.DamageEstimator = (*Combat)(nil)
)

// Rules bundles the reference collaborators for one world.
type Rules struct {
	World   *world.State
	Path    *Pathfinder
	Targets *Targeting
	Vision  *Vision
	Combat  *Combat
}

func NewRules(w *world.State) *Rules {
	return &Rules{
		World:   w,
		Path:    NewPathfinder(w),
		Targets: NewTargeting(w),
		Vision:  NewVision(w),
		Combat:  NewCombat(w),
	}
}

// Env returns the collaborator set a danger.Cache reads from.
func (r *Rules) Env() danger.Env {
	return danger.Env{
		World:   r.World,
		Reach:   r.Path,
		Targets: r.Targets,
		Vision:  r.Vision,
		Damage:  r.Combat,
	}
}
