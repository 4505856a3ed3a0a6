package reduce

import (
	"path/filepath"
	"strings"

	"github.com/mohsenil85/imbolc/internal/action"
	"github.com/mohsenil85/imbolc/internal/state"
)

func reduceSession(a action.Action, session *state.SessionState) {
	switch act := a.(type) {
	case action.UpdateSession:
		session.ApplyMusicalSettings(act.Settings)

	case action.UpdateSessionLive:
		session.ApplyMusicalSettings(act.Settings)

	case action.AdjustHumanizeVelocity:
		session.Humanize.Velocity = clampf(session.Humanize.Velocity+act.Delta, 0, 1)

	case action.AdjustHumanizeTiming:
		session.Humanize.Timing = clampf(session.Humanize.Timing+act.Delta, 0, 1)

	case action.ToggleMasterMute:
		session.Mixer.MasterMute = !session.Mixer.MasterMute

	case action.CycleTheme:
		session.Theme = session.Theme.NextTheme()

	case action.ImportVstPlugin:
		name := strings.TrimSuffix(filepath.Base(act.Path), filepath.Ext(act.Path))
		if name == "" {
			name = "VST Plugin"
		}
		session.VstPlugins.Add(state.VstPlugin{
			Name: name,
			Path: act.Path,
			Kind: act.Kind,
		})
	}
}

func reduceClick(a action.Action, session *state.SessionState) {
	ct := &session.ClickTrack
	switch act := a.(type) {
	case action.ToggleClick:
		ct.Enabled = !ct.Enabled
	case action.ToggleClickMute:
		ct.Muted = !ct.Muted
	case action.AdjustClickVolume:
		ct.Volume = clampf(ct.Volume+act.Delta, 0, 1)
	case action.SetClickVolume:
		ct.Volume = clampf(act.Volume, 0, 1)
	}
}
