package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lets the same behavioral suite run against every
// adapter.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(afero.NewMemMapFs(), "/data")
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			_, err := s.Get(ctx, KeySession)
			assert.True(t, errors.Is(err, ErrKeyNotFound))

			require.NoError(t, s.Set(ctx, KeySession, []byte(`{"token":"abc"}`)))

			got, err := s.Get(ctx, KeySession)
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"token":"abc"}`), got)

			// Overwrite is visible on the next read.
			require.NoError(t, s.Set(ctx, KeySession, []byte(`{"token":"def"}`)))
			got, err = s.Get(ctx, KeySession)
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"token":"def"}`), got)

			require.NoError(t, s.Delete(ctx, KeySession))
			_, err = s.Get(ctx, KeySession)
			assert.True(t, errors.Is(err, ErrKeyNotFound))

			// Deleting an absent key is fine.
			assert.NoError(t, s.Delete(ctx, KeySession))
		})
	}
}

func TestStore_KeysByPrefix(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, AIHistoryKey("patient-001", "patient"), []byte("[]")))
			require.NoError(t, s.Set(ctx, AIHistoryKey("patient-001", "doctor"), []byte("[]")))
			require.NoError(t, s.Set(ctx, AIHistoryKey("patient-002", "patient"), []byte("[]")))
			require.NoError(t, s.Set(ctx, KeySession, []byte("{}")))

			keys, err := s.Keys(ctx, AIHistoryPrefixFor("patient-001"))
			require.NoError(t, err)
			assert.Len(t, keys, 2)
			for _, k := range keys {
				assert.Contains(t, k, "patient-001")
			}
		})
	}
}

func TestAIHistoryKey(t *testing.T) {
	key := AIHistoryKey("patient-001", "patient")
	assert.Equal(t, "clinix/ai-history/patient-001/patient", key)
	assert.Contains(t, key, AIHistoryPrefixFor("patient-001"))
}
