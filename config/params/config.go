// Package params holds the configuration surface of the consensus
// core: thread topology, slot timing, retention window and the
// participant set, loadable from a YAML file the way the teacher's
// own config/params package loads network configs.
package params

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// GraphConfig configures the slot clock and the retention planner.
type GraphConfig struct {
	// ThreadCount is the number of parallel block-production threads (T).
	ThreadCount uint8 `yaml:"thread_count"`
	// T0Millis is the slot period, total across all threads, in ms.
	T0Millis uint64 `yaml:"t0_millis"`
	// GenesisTimestampMillis anchors slot 0 to wall-clock time.
	GenesisTimestampMillis uint64 `yaml:"genesis_timestamp_millis"`
	// OperationValidityPeriods is the per-thread retention window (OVP).
	OperationValidityPeriods uint64 `yaml:"operation_validity_periods"`
}

// NodeInfo is one participant of the consensus protocol.
type NodeInfo struct {
	Weight uint64 `yaml:"weight"`
}

// ConsensusConfig configures the worker's own identity and the
// participant set used for block-creator selection.
type ConsensusConfig struct {
	GraphConfig `yaml:",inline"`

	// CurrentNodeIndex is this node's index into Nodes.
	CurrentNodeIndex uint64 `yaml:"current_node_index"`
	// Nodes holds every participant's selection weight, in index order.
	Nodes []NodeInfo `yaml:"nodes"`
}

// DefaultGraphConfig mirrors the teacher's package-level default
// config pattern: a two-thread, one-second-slot configuration with a
// ten-period retention window, suitable for tests and local development.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		ThreadCount:              2,
		T0Millis:                 1000,
		GenesisTimestampMillis:   0,
		OperationValidityPeriods: 10,
	}
}

// DefaultConsensusConfig wraps DefaultGraphConfig with a single,
// self-weighted participant.
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		GraphConfig:      DefaultGraphConfig(),
		CurrentNodeIndex: 0,
		Nodes:            []NodeInfo{{Weight: 1}},
	}
}

// LoadConsensusConfig reads and decodes a ConsensusConfig from a YAML
// file at path, starting from DefaultConsensusConfig so a partial file
// only needs to specify overrides.
func LoadConsensusConfig(path string) (ConsensusConfig, error) {
	cfg := DefaultConsensusConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "decoding config file %s", path)
	}
	return cfg, nil
}

// ParticipantWeights extracts the plain weight slice used by the
// selector, in node-index order.
func (c ConsensusConfig) ParticipantWeights() []uint64 {
	weights := make([]uint64, len(c.Nodes))
	for i, n := range c.Nodes {
		weights[i] = n.Weight
	}
	return weights
}
