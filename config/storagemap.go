package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StorageMap is the storage section of the configuration. In contrast to a
// plain map it retains the order in which the entries appear in the document.
type StorageMap struct {
	names   []string
	entries map[string]*Storage
}

// NewStorageMap returns an empty StorageMap.
func NewStorageMap() StorageMap {
	return StorageMap{
		entries: make(map[string]*Storage),
	}
}

// Names returns the names of all entries in document order.
func (s *StorageMap) Names() []string {
	return s.names
}

// Get returns the entry called name or nil if there is no such entry.
func (s *StorageMap) Get(name string) *Storage {
	return s.entries[name]
}

// Len returns the number of entries.
func (s *StorageMap) Len() int {
	return len(s.names)
}

// Set adds or replaces the entry called name. A replaced entry keeps its
// position.
func (s *StorageMap) Set(name string, storage *Storage) {
	if s.entries == nil {
		s.entries = make(map[string]*Storage)
	}
	if _, ok := s.entries[name]; !ok {
		s.names = append(s.names, name)
	}
	s.entries[name] = storage
}

func (s *StorageMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: storage must be a mapping", value.Line)
	}

	*s = NewStorageMap()

	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return err
		}

		storage := &Storage{}
		if err := value.Content[i+1].Decode(storage); err != nil {
			return fmt.Errorf("storage %s: %w", name, err)
		}

		s.Set(name, storage)
	}

	return nil
}

func (s StorageMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for _, name := range s.names {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(s.entries[name]); err != nil {
			return nil, err
		}

		node.Content = append(
			node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			valueNode,
		)
	}

	return node, nil
}
