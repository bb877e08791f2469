package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name  string   `msgpack:"name"`
	Items []string `msgpack:"items"`
}

func TestDisk_PutGet(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	key := Key("test/v1", []byte("IDENTIFICATION DIVISION."))
	var out payload
	hit, err := c.Get(key, &out)
	require.NoError(t, err)
	assert.False(t, hit)

	in := payload{Name: "CMPINIT", Items: []string{"A", "B"}}
	require.NoError(t, c.Put(key, in))

	hit, err = c.Get(key, &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, in, out)

	require.NoError(t, c.Put(key, payload{Name: "REPLACED"}))
	out = payload{}
	_, err = c.Get(key, &out)
	require.NoError(t, err)
	assert.Equal(t, "REPLACED", out.Name)

	matches, err := filepath.Glob(filepath.Join(c.Dir(), "*", "tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no temp files left behind")
}

func TestKey_NamespaceSeparates(t *testing.T) {
	content := []byte("same")
	assert.NotEqual(t, Key("a", content), Key("b", content))
	assert.Equal(t, Key("a", content), Key("a", content))
	assert.Len(t, Key("a", content).String(), 64)
}

func TestDisk_SchemaMismatchIsMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := Key("ns", []byte("x"))
	require.NoError(t, c.Put(key, payload{Name: "x"}))

	raw, err := msgpack.Marshal(payload{Name: "x"})
	require.NoError(t, err)
	b, err := msgpack.Marshal(envelope{Schema: schemaVersion + 1, Payload: raw})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(c.pathFor(key), b, 0o644))

	var out payload
	hit, err := c.Get(key, &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDisk_CorruptEntryIsError(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := Key("ns", []byte("y"))
	require.NoError(t, os.MkdirAll(filepath.Dir(c.pathFor(key)), 0o755))
	require.NoError(t, os.WriteFile(c.pathFor(key), []byte{0xc1}, 0o644))

	var out payload
	_, err = c.Get(key, &out)
	assert.Error(t, err)
}

func TestDisk_NilAndDropAll(t *testing.T) {
	var nilCache *Disk
	hit, err := nilCache.Get(Key("ns", nil), &payload{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, nilCache.Put(Key("ns", nil), payload{}))
	assert.NoError(t, nilCache.DropAll())

	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := Key("ns", []byte("z"))
	require.NoError(t, c.Put(key, payload{Name: "z"}))
	require.NoError(t, c.DropAll())
	hit, err = c.Get(key, &payload{})
	require.NoError(t, err)
	assert.False(t, hit)
}
