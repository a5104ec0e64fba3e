package fleet

import (
	"fmt"
	"strings"
)

// NodeStatus is the last observed liveness state of a node.
type NodeStatus string

const (
	// StatusUnknown is the state of a record that has never been probed.
	// A record only holds it between creation (or update) and the first
	// probe that follows.
	StatusUnknown NodeStatus = "unknown"

	// StatusOnline means the last probe reached the node's daemon and the
	// daemon reported itself online.
	StatusOnline NodeStatus = "online"

	// StatusOffline means the last probe failed: connection error, timeout,
	// non-2xx response, malformed body, or the daemon reporting itself
	// offline.
	StatusOffline NodeStatus = "offline"
)

// NodeRecord is the identity and last-known state of one fleet member.
//
// The descriptive fields (Name, Tags, RAM, Disk, Processor) are free-form
// operator metadata. Address, Port and APIKey locate and authenticate the
// node's daemon. Status and the capability fields (VersionFamily,
// VersionRelease, Remote, Docker) are owned by the prober: the capability
// fields are only overwritten on a successful probe and deliberately keep
// their previous values when the node is unreachable, so the panel retains
// the last-known capability information for an offline node.
type NodeRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tags      string `json:"tags"`
	RAM       string `json:"ram"`
	Disk      string `json:"disk"`
	Processor string `json:"processor"`

	Address string `json:"address"`
	Port    string `json:"port"`
	APIKey  string `json:"apiKey"`

	Status NodeStatus `json:"status"`

	VersionFamily  int    `json:"versionFamily"`
	VersionRelease string `json:"versionRelease"`
	Remote         string `json:"remote"`
	Docker         bool   `json:"docker"`
}

// NodeParams carries the operator-supplied fields of a create or update
// request. Everything except Address, Port and APIKey is optional and is
// stored as-is with no shape validation.
type NodeParams struct {
	Name      string `json:"name"`
	Tags      string `json:"tags"`
	RAM       string `json:"ram"`
	Disk      string `json:"disk"`
	Processor string `json:"processor"`
	Address   string `json:"address"`
	Port      string `json:"port"`
	APIKey    string `json:"apiKey"`
}

// Validate checks that the fields required to reach the node's daemon are
// present. It returns a *ValidationError naming every missing field, or nil.
func (p NodeParams) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(p.Port) == "" {
		missing = append(missing, "port")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		missing = append(missing, "apiKey")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// DaemonStatus is the JSON body a node daemon returns from GET / when the
// probe's basic-auth credentials are accepted.
type DaemonStatus struct {
	VersionFamily  int    `json:"versionFamily"`
	VersionRelease string `json:"versionRelease"`
	Online         bool   `json:"online"`
	Remote         string `json:"remote"`
	Docker         bool   `json:"docker"`
}

// DaemonURL is the address the prober dials for a record:
// http://{address}:{port}/.
func (n NodeRecord) DaemonURL() string {
	return fmt.Sprintf("http://%s:%s/", n.Address, n.Port)
}
