package reduce

import (
	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func reduceAutomation(a action.Action, session *state.SessionState) {
	auto := &session.Automation
	switch act := a.(type) {
	case action.AddLane:
		auto.AddLane(act.Target)

	case action.RemoveLane:
		auto.RemoveLane(act.Lane)

	case action.ToggleLaneEnabled:
		if l := auto.Lane(act.Lane); l != nil {
			l.Enabled = !l.Enabled
		}

	case action.AddAutomationPoint:
		if l := auto.Lane(act.Lane); l != nil {
			l.AddPoint(act.Tick, act.Value)
		}

	case action.RemoveAutomationPoint:
		if l := auto.Lane(act.Lane); l != nil {
			l.RemovePoint(act.Tick)
		}

	case action.MoveAutomationPoint:
		if l := auto.Lane(act.Lane); l != nil {
			l.RemovePoint(act.OldTick)
			l.AddPoint(act.NewTick, act.Value)
		}

	case action.SetCurveType:
		if l := auto.Lane(act.Lane); l != nil {
			if p := l.PointAt(act.Tick); p != nil {
				p.Curve = act.Curve
			}
		}

	case action.SelectLane:
		if act.Delta > 0 {
			auto.SelectNext()
		} else {
			auto.SelectPrev()
		}

	case action.ClearLane:
		if l := auto.Lane(act.Lane); l != nil {
			l.Points = l.Points[:0]
		}

	case action.ToggleLaneArm:
		if l := auto.Lane(act.Lane); l != nil {
			l.RecordArmed = !l.RecordArmed
		}

	case action.ArmAllLanes:
		for i := range auto.Lanes {
			auto.Lanes[i].RecordArmed = true
		}

	case action.DisarmAllLanes:
		for i := range auto.Lanes {
			auto.Lanes[i].RecordArmed = false
		}

	case action.DeletePointsInRange:
		if l := auto.Lane(act.Lane); l != nil {
			kept := l.Points[:0]
			for _, p := range l.Points {
				if p.Tick < act.StartTick || p.Tick >= act.EndTick {
					kept = append(kept, p)
				}
			}
			l.Points = kept
		}

	case action.PastePoints:
		if l := auto.Lane(act.Lane); l != nil {
			for _, cp := range act.Points {
				l.AddPoint(act.AnchorTick+cp.TickOffset, cp.Value)
			}
		}

	// The recorded value lands in the lane at the playhead; the playhead
	// itself is tracked by whoever calls (main thread passes it via the
	// action tick when recording).
	case action.RecordAutomationValue:
		if l := auto.Lane(act.Lane); l != nil && l.RecordArmed {
			l.AddPoint(uint32(session.PianoRoll.PlayheadTicks), act.Value)
		}

	// CopyPoints: clipboard only.
	case action.CopyPoints:
	}
}
