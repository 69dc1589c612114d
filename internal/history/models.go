package history

import "sort"

// DefaultMaxEntries bounds each target's location list unless configured.
const DefaultMaxEntries = 10

// Locations maps a target name to the absolute paths it has been deployed to,
// most-recently-used first.
type Locations map[string][]string

// Clone returns a deep copy.
func (l Locations) Clone() Locations {
	out := make(Locations, len(l))
	for name, paths := range l {
		out[name] = append([]string(nil), paths...)
	}
	return out
}

// Names returns the known target names in sorted order.
func (l Locations) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TargetLocations is the JSON shape used by the HTTP boundary.
type TargetLocations struct {
	Name      string   `json:"name"`
	Locations []string `json:"locations"`
}
