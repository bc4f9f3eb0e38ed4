// Package block defines block-state values and block-entity records.
package block

import (
	"sort"
	"strings"
)

// State is a block identifier plus its canonical property list
// ("facing=north,half=bottom", keys sorted). It is comparable and the zero
// value means "no block".
type State struct {
	Name       string
	Properties string
}

// Common states.
var (
	Air = State{Name: "minecraft:air"}
)

// Of returns the property-less state for name.
func Of(name string) State {
	return State{Name: qualify(name)}
}

// Parse reads a state string such as "minecraft:oak_stairs[facing=east]".
// A missing namespace defaults to minecraft.
func Parse(s string) State {
	s = strings.TrimSpace(s)
	name, props, ok := strings.Cut(s, "[")
	if !ok {
		return State{Name: qualify(name)}
	}
	props = strings.TrimSuffix(props, "]")
	return State{Name: qualify(name), Properties: canonical(splitProps(props))}
}

func qualify(name string) string {
	if name == "" || strings.Contains(name, ":") {
		return name
	}
	return "minecraft:" + name
}

func splitProps(s string) map[string]string {
	m := make(map[string]string)
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m
}

func canonical(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m[k])
	}
	return b.String()
}

// IsZero reports whether s names no block at all.
func (s State) IsZero() bool { return s.Name == "" }

// IsAir reports whether s is one of the air variants.
func (s State) IsAir() bool {
	switch s.Name {
	case "minecraft:air", "minecraft:cave_air", "minecraft:void_air":
		return true
	}
	return false
}

func (s State) String() string {
	if s.Properties == "" {
		return s.Name
	}
	return s.Name + "[" + s.Properties + "]"
}

// Props returns the properties as a fresh map.
func (s State) Props() map[string]string {
	if s.Properties == "" {
		return map[string]string{}
	}
	return splitProps(s.Properties)
}

// Property returns the value of key.
func (s State) Property(key string) (string, bool) {
	for _, kv := range strings.Split(s.Properties, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

// With returns a copy of s with key set to value.
func (s State) With(key, value string) State {
	m := s.Props()
	m[key] = value
	return State{Name: s.Name, Properties: canonical(m)}
}
