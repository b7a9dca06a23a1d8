package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) Save(_ context.Context, name string, data []byte) error {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[name] = append([]byte(nil), data...)
	return nil
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got := ObjectName("snapshots", "janedoe", at)
	assert.Equal(t, "snapshots/janedoe/2025-03-14T09:26:53Z.json", got)
}

func TestSnapshotSavesJSON(t *testing.T) {
	t.Parallel()

	ms := &memStore{}
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	raw := map[string]any{"name": "Jane Doe", "company": "Acme"}

	require.NoError(t, Snapshot(context.Background(), ms, "snapshots", "janedoe", at, raw))

	data, ok := ms.objects["snapshots/janedoe/2025-03-14T09:26:53Z.json"]
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Jane Doe","company":"Acme"}`, string(data))
}

func TestNoOpSave(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NoOp{}.Save(context.Background(), "any", nil))
}
