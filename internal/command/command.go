// Package command is the intake surface between the outer application
// (HTTP/WebSocket handlers) and the single-threaded simulation core: a
// non-blocking queue plus a per-actor rate limiter, decoupling request
// handling from the tick loop exactly the way the chat command queue
// decoupled webhook handling from the game engine.
package command

import "skirmish/internal/sim"

// Kind tags which Combat Coordinator (or entity-management) operation a
// Command carries.
type Kind uint8

const (
	KindAttack Kind = iota
	KindAttackHold
	KindCycleHoldState
	KindToggleFiringPreference
	KindSetFiringMode
	KindCycleMultiShotCount
	KindSetAimingSpeed
	KindSetMovementType
	KindToggleCombatMode
	KindToggleAutoTarget
	KindSetReactionTarget
	KindClearReaction
	KindReload
	KindMoveUnitTo
)

// Command is a single queued actor intent. ActorID is the unit issuing
// the command, used both for rate limiting and as the default
// owner/attacker for operations that need one.
type Command struct {
	Kind     Kind
	ActorID  sim.UnitID
	TargetID sim.UnitID
	X, Y     float64
	Mode     sim.FiringMode
	Speed    sim.AimingSpeed
	Movement sim.MovementType
}

// Apply dispatches cmd against s, delegating to the Combat Coordinator.
// Returned errors are the core's own recoverable *sim.Error values; the
// caller (the queue's drain loop) is expected to log/notify rather than
// treat them as fatal, per the core's error-as-values policy.
func Apply(s *sim.Sim, cmd Command) *sim.Error {
	switch cmd.Kind {
	case KindAttack:
		return s.Attack(cmd.ActorID, cmd.TargetID, false)
	case KindAttackHold:
		return s.Attack(cmd.ActorID, cmd.TargetID, true)
	case KindCycleHoldState:
		return s.CycleHoldState(cmd.ActorID)
	case KindToggleFiringPreference:
		return s.ToggleFiringPreference(cmd.ActorID)
	case KindSetFiringMode:
		return s.SetFiringMode(cmd.ActorID, cmd.Mode)
	case KindCycleMultiShotCount:
		return s.CycleMultiShotCount(cmd.ActorID)
	case KindSetAimingSpeed:
		return s.SetAimingSpeed(cmd.ActorID, cmd.Speed)
	case KindSetMovementType:
		return s.SetMovementType(cmd.ActorID, cmd.Movement)
	case KindToggleCombatMode:
		return s.ToggleCombatMode(cmd.ActorID)
	case KindToggleAutoTarget:
		return s.ToggleAutoTarget(cmd.ActorID)
	case KindSetReactionTarget:
		return s.SetReactionTarget(cmd.ActorID, cmd.TargetID)
	case KindClearReaction:
		return s.ClearReaction(cmd.ActorID)
	case KindReload:
		return s.Reload(cmd.ActorID)
	case KindMoveUnitTo:
		s.MoveUnitTo(cmd.ActorID, cmd.X, cmd.Y)
		return nil
	}
	return nil
}
