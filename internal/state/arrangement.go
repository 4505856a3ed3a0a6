package state

// Clip is a reusable pattern block: a named bag of notes with a length.
type Clip struct {
	Id          ClipId `json:"id"`
	Name        string `json:"name"`
	Notes       []Note `json:"notes"`
	LengthTicks uint32 `json:"lengthTicks"`
}

// Placement drops a clip onto an instrument lane at a start tick. An
// optional length override truncates or loops the clip within the placement.
type Placement struct {
	Id             PlacementId  `json:"id"`
	Clip           ClipId       `json:"clip"`
	Instrument     InstrumentId `json:"instrument"`
	StartTick      uint32       `json:"startTick"`
	LengthOverride uint32       `json:"lengthOverride"` // 0 = clip length
}

// ArrangementState holds clips and their placements on the timeline.
type ArrangementState struct {
	Clips           []Clip      `json:"clips"`
	Placements      []Placement `json:"placements"`
	NextClipId      uint32      `json:"nextClipId"`
	NextPlacementId uint32      `json:"nextPlacementId"`
}

func NewArrangementState() ArrangementState {
	return ArrangementState{NextClipId: 1, NextPlacementId: 1}
}

// AddClip registers a clip and returns its id.
func (a *ArrangementState) AddClip(name string, notes []Note, lengthTicks uint32) ClipId {
	id := ClipId(a.NextClipId)
	a.NextClipId++
	a.Clips = append(a.Clips, Clip{Id: id, Name: name, Notes: notes, LengthTicks: lengthTicks})
	return id
}

// RemoveClip deletes a clip and every placement of it.
func (a *ArrangementState) RemoveClip(id ClipId) {
	for i, c := range a.Clips {
		if c.Id == id {
			a.Clips = append(a.Clips[:i], a.Clips[i+1:]...)
			break
		}
	}
	kept := a.Placements[:0]
	for _, p := range a.Placements {
		if p.Clip != id {
			kept = append(kept, p)
		}
	}
	a.Placements = kept
}

// Clip returns the clip with the given id, or nil.
func (a *ArrangementState) Clip(id ClipId) *Clip {
	for i := range a.Clips {
		if a.Clips[i].Id == id {
			return &a.Clips[i]
		}
	}
	return nil
}

// Place puts a clip on an instrument lane and returns the placement id.
func (a *ArrangementState) Place(clip ClipId, instrument InstrumentId, startTick uint32) PlacementId {
	id := PlacementId(a.NextPlacementId)
	a.NextPlacementId++
	a.Placements = append(a.Placements, Placement{
		Id: id, Clip: clip, Instrument: instrument, StartTick: startTick,
	})
	return id
}

// RemovePlacement deletes one placement.
func (a *ArrangementState) RemovePlacement(id PlacementId) {
	for i, p := range a.Placements {
		if p.Id == id {
			a.Placements = append(a.Placements[:i], a.Placements[i+1:]...)
			return
		}
	}
}

// Placement returns the placement with the given id, or nil.
func (a *ArrangementState) Placement(id PlacementId) *Placement {
	for i := range a.Placements {
		if a.Placements[i].Id == id {
			return &a.Placements[i]
		}
	}
	return nil
}

// RemoveForInstrument drops placements on a deleted instrument.
func (a *ArrangementState) RemoveForInstrument(id InstrumentId) {
	kept := a.Placements[:0]
	for _, p := range a.Placements {
		if p.Instrument != id {
			kept = append(kept, p)
		}
	}
	a.Placements = kept
}

func (a *ArrangementState) Clone() ArrangementState {
	out := *a
	out.Clips = make([]Clip, len(a.Clips))
	for i, c := range a.Clips {
		out.Clips[i] = c
		out.Clips[i].Notes = append([]Note(nil), c.Notes...)
	}
	out.Placements = append([]Placement(nil), a.Placements...)
	return out
}
