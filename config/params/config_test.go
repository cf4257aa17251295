package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConsensusConfig(t *testing.T) {
	cfg := DefaultConsensusConfig()
	require.Equal(t, uint8(2), cfg.ThreadCount)
	require.Equal(t, []uint64{1}, cfg.ParticipantWeights())
}

func TestLoadConsensusConfig_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	contents := []byte("thread_count: 4\nt0_millis: 16000\ncurrent_node_index: 1\nnodes:\n  - weight: 3\n  - weight: 1\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := LoadConsensusConfig(path)
	require.NoError(t, err)
	require.Equal(t, uint8(4), cfg.ThreadCount)
	require.Equal(t, uint64(16000), cfg.T0Millis)
	require.Equal(t, uint64(1), cfg.CurrentNodeIndex)
	require.Equal(t, []uint64{3, 1}, cfg.ParticipantWeights())
	// untouched default carried through
	require.Equal(t, uint64(10), cfg.OperationValidityPeriods)
}

func TestLoadConsensusConfig_MissingFile(t *testing.T) {
	_, err := LoadConsensusConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
