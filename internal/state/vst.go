package state

// VstPluginKind distinguishes instrument plugins from effect plugins.
type VstPluginKind int

const (
	VstInstrument VstPluginKind = iota
	VstEffect
)

// VstParamSpec describes one discovered plugin parameter.
type VstParamSpec struct {
	Index   ParamIndex `json:"index"`
	Name    string     `json:"name"`
	Label   string     `json:"label,omitempty"`
	Default float32    `json:"default"`
}

// VstPlugin is one registered plugin binary.
type VstPlugin struct {
	Id     VstPluginId    `json:"id"`
	Name   string         `json:"name"`
	Path   string         `json:"path"`
	Kind   VstPluginKind  `json:"kind"`
	Params []VstParamSpec `json:"params"`
}

// VstPluginRegistry holds all imported plugins, ids monotonic.
type VstPluginRegistry struct {
	Plugins []VstPlugin `json:"plugins"`
	NextId  uint32      `json:"nextId"`
}

func NewVstPluginRegistry() VstPluginRegistry { return VstPluginRegistry{NextId: 1} }

// Add registers a plugin, assigning its id. Returns the assigned id.
func (r *VstPluginRegistry) Add(p VstPlugin) VstPluginId {
	p.Id = VstPluginId(r.NextId)
	r.NextId++
	r.Plugins = append(r.Plugins, p)
	return p.Id
}

// Get returns the plugin with the given id, or nil.
func (r *VstPluginRegistry) Get(id VstPluginId) *VstPlugin {
	for i := range r.Plugins {
		if r.Plugins[i].Id == id {
			return &r.Plugins[i]
		}
	}
	return nil
}

// ParamDefault returns the discovered default for a parameter, or 0.5 when
// the plugin or parameter is unknown.
func (r *VstPluginRegistry) ParamDefault(id VstPluginId, idx ParamIndex) float32 {
	if p := r.Get(id); p != nil {
		for _, spec := range p.Params {
			if spec.Index == idx {
				return spec.Default
			}
		}
	}
	return 0.5
}

func (r *VstPluginRegistry) Clone() VstPluginRegistry {
	out := *r
	out.Plugins = make([]VstPlugin, len(r.Plugins))
	for i, p := range r.Plugins {
		out.Plugins[i] = p
		out.Plugins[i].Params = append([]VstParamSpec(nil), p.Params...)
	}
	return out
}

// CustomSynthDef is a user-imported SuperCollider SynthDef.
type CustomSynthDef struct {
	Id     CustomSynthDefId `json:"id"`
	Name   string           `json:"name"`
	Path   string           `json:"path"`
	Params []string         `json:"params"`
}

// CustomSynthDefRegistry holds imported synthdefs, ids monotonic.
type CustomSynthDefRegistry struct {
	Defs   []CustomSynthDef `json:"defs"`
	NextId uint32           `json:"nextId"`
}

func NewCustomSynthDefRegistry() CustomSynthDefRegistry {
	return CustomSynthDefRegistry{NextId: 1}
}

// Add registers a synthdef, assigning its id.
func (r *CustomSynthDefRegistry) Add(d CustomSynthDef) CustomSynthDefId {
	d.Id = CustomSynthDefId(r.NextId)
	r.NextId++
	r.Defs = append(r.Defs, d)
	return d.Id
}

// Get returns the synthdef with the given id, or nil.
func (r *CustomSynthDefRegistry) Get(id CustomSynthDefId) *CustomSynthDef {
	for i := range r.Defs {
		if r.Defs[i].Id == id {
			return &r.Defs[i]
		}
	}
	return nil
}

func (r *CustomSynthDefRegistry) Clone() CustomSynthDefRegistry {
	out := *r
	out.Defs = make([]CustomSynthDef, len(r.Defs))
	for i, d := range r.Defs {
		out.Defs[i] = d
		out.Defs[i].Params = append([]string(nil), d.Params...)
	}
	return out
}
