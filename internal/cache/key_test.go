package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	paramsA := map[string]interface{}{"page": 1, "perPage": 10, "sort": "title"}
	paramsB := map[string]interface{}{"sort": "title", "perPage": 10, "page": 1}

	keyA, err := Key("posts", "getList", paramsA)
	require.NoError(t, err)
	keyB, err := Key("posts", "getList", paramsB)
	require.NoError(t, err)

	// Equal parameter sets produce equal keys regardless of map order
	assert.Equal(t, keyA, keyB)
}

func TestKeyShape(t *testing.T) {
	key, err := Key("posts", "getOne", map[string]interface{}{"id": "7"})
	require.NoError(t, err)

	parts := strings.SplitN(key, ":", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "posts", parts[0])
	assert.Equal(t, "getOne", parts[1])
	assert.Len(t, parts[2], 32)
}

func TestKeyDistinguishesOperations(t *testing.T) {
	params := map[string]interface{}{"id": "7"}

	keyOne, err := Key("posts", "getOne", params)
	require.NoError(t, err)
	keyMany, err := Key("posts", "getMany", params)
	require.NoError(t, err)

	assert.NotEqual(t, keyOne, keyMany)
}

func TestKeyDistinguishesParams(t *testing.T) {
	keyA, err := Key("posts", "getList", map[string]interface{}{"page": 1})
	require.NoError(t, err)
	keyB, err := Key("posts", "getList", map[string]interface{}{"page": 2})
	require.NoError(t, err)

	assert.NotEqual(t, keyA, keyB)
}

func TestKeyUnderResourcePrefix(t *testing.T) {
	key, err := Key("articles", "getList", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, ResourcePrefix("articles")))

	otherKey, err := Key("authors", "getList", nil)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(otherKey, ResourcePrefix("articles")))
}

func TestKeySanitizesResource(t *testing.T) {
	key, err := Key("my resource:x", "getList", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "my_resource_x:"))
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("some-key")
	h2 := HashKey("some-key")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashKey("other-key"))
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "a_b", SanitizeKey("a b"))
	assert.Equal(t, "a_b", SanitizeKey("a:b"))
	assert.Equal(t, "ab", SanitizeKey("a\nb"))
	assert.Equal(t, "ab", SanitizeKey("a\r\tb"))
}
