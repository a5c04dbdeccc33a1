package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ServerStatus is the life cycle state of a server.
type ServerStatus string

const (
	StatusOnline          ServerStatus = "online"
	StatusOffline         ServerStatus = "offline"
	StatusActive          ServerStatus = "active"
	StatusRetired         ServerStatus = "retired"
	StatusCommissioning   ServerStatus = "commissioning"
	StatusDecommissioning ServerStatus = "decommissioning"
)

var serverStatuses = []ServerStatus{
	StatusOnline,
	StatusOffline,
	StatusActive,
	StatusRetired,
	StatusCommissioning,
	StatusDecommissioning,
}

// ParseServerStatus returns the ServerStatus for s or an error if s is not a
// known status.
func ParseServerStatus(s string) (ServerStatus, error) {
	for _, status := range serverStatuses {
		if string(status) == s {
			return status, nil
		}
	}

	return "", fmt.Errorf("unknown server status '%s'", s)
}

func (s *ServerStatus) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	status, err := ParseServerStatus(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	*s = status
	return nil
}
