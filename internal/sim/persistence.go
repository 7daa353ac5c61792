package sim

import (
	"container/heap"
	"encoding/gob"
	"io"
)

func init() {
	gob.Register(ActionCompleteWeaponState{})
	gob.Register(ActionFireShot{})
	gob.Register(ActionMeleeImpact{})
	gob.Register(ActionMeleeRecoveryComplete{})
	gob.Register(ActionReloadStep{})
	gob.Register(ActionReloadComplete{})
	gob.Register(ActionDefenseCooldownComplete{})
	gob.Register(ActionHesitationEnd{})
	gob.Register(ActionReactionFire{})
	gob.Register(ActionReaimDelayComplete{})
}

// UnitRecord is the flat, gob-encodable projection of a Unit used by
// Record. Unlike UnitView (the read-only API projection), it carries the
// full Character, including every manager sidetable, so a Restore
// reproduces state byte-for-byte.
type UnitRecord struct {
	ID      UnitID
	X, Y    float64
	TX, TY  float64
	VX, VY  float64
	Moving  bool
	Faction Faction
	Char    Character
}

// EventRecord is the flat projection of one pending scheduler entry.
// Tombstoned and already-fired events are never recorded: a restored Sim
// starts with exactly the live queue the original had at export time.
type EventRecord struct {
	Tick     Tick
	Owner    UnitID
	HasOwner bool
	Action   Action
}

// Record is the complete persisted-state layout described in §6: current
// tick, PRNG state, every live entity's full character state, and the
// pending-event queue with absolute ticks. Grounded on the flat
// record-of-records shape of the teacher's wire protocol (protocol.go),
// adapted from a framed socket message to a plain gob stream since the
// core has no transport of its own.
type Record struct {
	Tick     Tick
	RNGSeed  int64
	RNGDraws uint64

	Units []UnitRecord

	Events          []EventRecord
	NextEventSeq    uint64
	NextEventHandle uint64
	LastAttackTick  map[UnitID]int64

	ReactionByTarget map[UnitID][]UnitID

	Config Config
}

// Export captures s into a Record suitable for gob encoding. The
// original Sim is left untouched.
func (s *Sim) Export() Record {
	seed, draws := s.rng.state()
	rec := Record{
		Tick:             s.now,
		RNGSeed:          seed,
		RNGDraws:         draws,
		NextEventSeq:     s.scheduler.seq,
		NextEventHandle:  s.scheduler.nextEvt,
		LastAttackTick:   make(map[UnitID]int64, len(s.scheduler.lastFired)),
		ReactionByTarget: make(map[UnitID][]UnitID, len(s.reactionByTarget)),
		Config:           s.config,
	}
	for id, tick := range s.scheduler.lastFired {
		rec.LastAttackTick[id] = tick
	}
	for target, watchers := range s.reactionByTarget {
		rec.ReactionByTarget[target] = append([]UnitID(nil), watchers...)
	}

	for _, u := range s.entities.Iter() {
		rec.Units = append(rec.Units, UnitRecord{
			ID: u.ID, X: u.X, Y: u.Y, TX: u.TX, TY: u.TY, VX: u.VX, VY: u.VY,
			Moving: u.Moving, Faction: u.Faction, Char: u.Char,
		})
	}
	for _, evt := range s.scheduler.heap {
		if evt.tombstoned {
			continue
		}
		rec.Events = append(rec.Events, EventRecord{
			Tick: evt.tick, Owner: evt.owner, HasOwner: evt.hasOwner, Action: evt.action,
		})
	}
	return rec
}

// Restore reconstructs a Sim from a Record produced by Export. The
// rebuilt Sim resumes at the same tick with the same PRNG draw position,
// the same live entities (at their original ids — Restore replays
// add_unit in id order so the EntityStore's no-reuse invariant still
// holds), and the same pending event queue.
func Restore(rec Record) *Sim {
	s := New(rec.Config)
	s.now = rec.Tick
	s.rng = restoreRNG(rec.RNGSeed, rec.RNGDraws)

	for _, ur := range rec.Units {
		for UnitID(len(s.entities.units)) < ur.ID {
			s.entities.units = append(s.entities.units, nil)
			s.entities.order = append(s.entities.order, UnitID(len(s.entities.units)-1))
		}
		u := &Unit{
			ID: ur.ID, X: ur.X, Y: ur.Y, TX: ur.TX, TY: ur.TY, VX: ur.VX, VY: ur.VY,
			Moving: ur.Moving, Faction: ur.Faction, Char: ur.Char,
		}
		if int(ur.ID) < len(s.entities.units) {
			s.entities.units[ur.ID] = u
		} else {
			s.entities.units = append(s.entities.units, u)
			s.entities.order = append(s.entities.order, ur.ID)
		}
	}

	s.scheduler.seq = rec.NextEventSeq
	s.scheduler.nextEvt = rec.NextEventHandle
	for id, tick := range rec.LastAttackTick {
		s.scheduler.lastFired[id] = tick
	}
	for _, er := range rec.Events {
		evt := &scheduledEvent{
			tick: er.Tick, seq: s.scheduler.seq, owner: er.Owner,
			hasOwner: er.HasOwner, action: er.Action,
		}
		s.scheduler.nextEvt++
		evt.handle = EventHandle(s.scheduler.nextEvt)
		heap.Push(&s.scheduler.heap, evt)
		s.scheduler.byHandle[evt.handle] = evt
	}
	for target, watchers := range rec.ReactionByTarget {
		s.reactionByTarget[target] = append([]UnitID(nil), watchers...)
	}

	s.grid.Clear()
	for _, u := range s.entities.Iter() {
		s.grid.Insert(uint32(u.ID), u.X, u.Y)
	}
	return s
}

// WriteRecord gob-encodes s's current state to w.
func WriteRecord(w io.Writer, s *Sim) error {
	return gob.NewEncoder(w).Encode(s.Export())
}

// ReadRecord decodes a Record from r and restores a Sim from it.
func ReadRecord(r io.Reader) (*Sim, error) {
	var rec Record
	if err := gob.NewDecoder(r).Decode(&rec); err != nil {
		return nil, err
	}
	return Restore(rec), nil
}
