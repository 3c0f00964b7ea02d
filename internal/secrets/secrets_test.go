package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringThenEnv(t *testing.T) {
	keyring.MockInit()

	t.Setenv("APIFY_API_TOKEN", "from-env")
	v, err := Get(AccountCollector)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	require.NoError(t, Set(AccountCollector, "from-keyring"))
	v, err = Get(AccountCollector)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", v)

	require.NoError(t, Delete(AccountCollector))
	t.Setenv("APIFY_API_TOKEN", "")
	_, err = Get(AccountCollector)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRejectsUnknownAccount(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, Set("imap", "x"))
	assert.Error(t, Set(AccountLLM, "  "))
}
