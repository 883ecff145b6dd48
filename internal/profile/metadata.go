package profile

// DefaultID is the identifier of the always-present default profile. Its
// context is immutable (and empty): the default profile matches everywhere.
const DefaultID = 0

// Metadata is a profile's stored record. The manager persists the full list
// of records; the settings values themselves live in the storage backend.
type Metadata struct {
	ID           int            `yaml:"id" json:"id"`
	Parent       *int           `yaml:"parent,omitempty" json:"parent,omitempty"`
	Name         string         `yaml:"name" json:"name"`
	I18nKey      string         `yaml:"i18n_key,omitempty" json:"i18n_key,omitempty"`
	Hotkey       string         `yaml:"hotkey,omitempty" json:"hotkey,omitempty"`
	PauseUpdates bool           `yaml:"pause_updates,omitempty" json:"pause_updates,omitempty"`
	Ephemeral    bool           `yaml:"ephemeral,omitempty" json:"ephemeral,omitempty"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	DescI18nKey  string         `yaml:"desc_i18n_key,omitempty" json:"desc_i18n_key,omitempty"`
	URL          string         `yaml:"url,omitempty" json:"url,omitempty"`
	ShowToggle   bool           `yaml:"show_toggle,omitempty" json:"show_toggle,omitempty"`
	Context      map[string]any `yaml:"context,omitempty" json:"context,omitempty"`
}

// Clone returns a copy with its own Context map.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Parent != nil {
		parent := *m.Parent
		out.Parent = &parent
	}
	out.Context = cloneContext(m.Context)
	return out
}

// mergeIdentity returns incoming with the identity and user-local fields
// taken from local. Remote documents may never overwrite these; only
// non-identity fields such as Context and ShowToggle flow through.
func mergeIdentity(incoming, local Metadata) Metadata {
	incoming.Ephemeral = local.Ephemeral
	incoming.ID = local.ID
	incoming.Name = local.Name
	incoming.I18nKey = local.I18nKey
	incoming.Hotkey = local.Hotkey
	incoming.Description = local.Description
	incoming.DescI18nKey = local.DescI18nKey
	incoming.URL = local.URL
	incoming.PauseUpdates = local.PauseUpdates
	return incoming
}

// cloneContext deep-copies a context specification.
func cloneContext(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, val := range src {
		if nested, ok := val.(map[string]any); ok {
			dst[key] = cloneContext(nested)
			continue
		}
		dst[key] = val
	}
	return dst
}
