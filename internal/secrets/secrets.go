package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "alumni-engine"

	AccountCollector = "collector-token"
	AccountLLM       = "llm-api-key"
)

var envFallback = map[string]string{
	AccountCollector: "APIFY_API_TOKEN",
	AccountLLM:       "OPENAI_API_KEY",
}

var ErrNotFound = errors.New("secret not found")

// Get reads a secret from the keychain, falling back to its environment variable.
func Get(account string) (string, error) {
	if v, err := keyring.Get(KeyringService, account); err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if env, ok := envFallback[account]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: %s (set it in the keychain or via %s)", ErrNotFound, account, env)
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, account)
}

func Set(account, value string) error {
	if _, ok := envFallback[account]; !ok {
		return fmt.Errorf("unknown secret account %q", account)
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if _, ok := envFallback[account]; !ok {
		return fmt.Errorf("unknown secret account %q", account)
	}
	return keyring.Delete(KeyringService, account)
}
