package woz

import (
	"sort"
	"strings"
)

// Metadata is the META chunk's ordered key -> value(s) mapping. Each value
// is either a single string or an ordered sequence of strings (when the
// on-disk value contained one or more "|" separators).
type Metadata struct {
	order  []string
	values map[string][]string
}

// NewMetadata returns an empty Metadata ready for Set.
func NewMetadata() *Metadata {
	return &Metadata{values: map[string][]string{}}
}

// Empty reports whether there is no metadata at all.
func (m *Metadata) Empty() bool {
	return m == nil || len(m.order) == 0
}

// Get returns the values for key, and whether it is present.
func (m *Metadata) Get(key string) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set adds or replaces the values for key, appending to the ordering if
// key is new. Passing an empty values slice deletes the key.
func (m *Metadata) Set(key string, values []string) {
	if len(values) == 0 {
		m.Delete(key)
		return
	}
	if _, ok := m.values[key]; !ok {
		m.order = append(m.order, key)
	}
	m.values[key] = values
}

// Delete removes key, if present.
func (m *Metadata) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return m.order
}

func parseMetadata(data []byte) (*Metadata, error) {
	if !validUTF8(data, "") {
		return nil, errf(KindEncodingError, "metadata is not valid UTF-8")
	}
	m := NewMetadata()
	text := string(data)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		tabs := strings.Count(line, "\t")
		if tabs < 1 {
			return nil, errf(KindNotEnoughTabs, "malformed metadata line %q", line)
		}
		if tabs > 1 {
			return nil, errf(KindTooManyTabs, "malformed metadata line %q", line)
		}
		parts := strings.SplitN(line, "\t", 2)
		key, valueRaw := parts[0], parts[1]
		if _, exists := m.values[key]; exists {
			return nil, errf(KindDuplicateKey, "duplicate metadata key %s", key)
		}
		values := strings.Split(valueRaw, "|")
		if err := validateEnumeratedMeta(key, values); err != nil {
			return nil, err
		}
		m.order = append(m.order, key)
		m.values[key] = values
	}
	return m, nil
}

func validateEnumeratedMeta(key string, values []string) error {
	switch key {
	case "language":
		for _, v := range values {
			if v != "" && !contains(Languages, v) {
				return errf(KindBadLanguage, "invalid metadata language %q", v)
			}
		}
	case "requires_ram":
		for _, v := range values {
			if v != "" && !contains(RequiredRAMValues, v) {
				return errf(KindBadRAM, "invalid metadata requires_ram %q", v)
			}
		}
	case "requires_machine":
		for _, v := range values {
			if v != "" && !contains(RequiredMachines, v) {
				return errf(KindBadMachine, "invalid metadata requires_machine %q", v)
			}
		}
	}
	return nil
}

func dumpMetadata(m *Metadata) ([]byte, error) {
	var b strings.Builder
	for _, key := range m.order {
		values := m.values[key]
		for _, v := range values {
			if strings.ContainsAny(v, "\t\n|") {
				return nil, errf(KindBadValue, "invalid metadata value for %s (contains tab, linefeed, or pipe)", key)
			}
		}
		if err := validateEnumeratedMeta(key, values); err != nil {
			return nil, err
		}
		b.WriteString(key)
		b.WriteByte('\t')
		b.WriteString(strings.Join(values, "|"))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func (m *Metadata) asMap() map[string]interface{} {
	out := map[string]interface{}{}
	if m == nil {
		return out
	}
	for _, k := range m.order {
		v := m.values[k]
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}

// sortedKeys is used only by tests that want deterministic iteration
// independent of insertion order.
func (m *Metadata) sortedKeys() []string {
	keys := append([]string(nil), m.order...)
	sort.Strings(keys)
	return keys
}
