package editor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erdsync/erd-sync/internal/diagram/domain"
)

func asJSON(t *testing.T, items domain.Items) any {
	t.Helper()
	b, err := json.Marshal(items)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}
