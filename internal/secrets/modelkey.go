package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"linkedva-engine/internal/config"
)

const (
	// Service groups the engine's secrets in the OS keychain.
	KeyringService = "linkedva"
)

func ModelKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf("linkedva:model:%s", cfg.Model.Provider)
}

// GetModelKey looks in the keychain first, then in the configured env var.
func GetModelKey(cfg config.Config) (string, error) {
	k, err := keyring.Get(KeyringService, ModelKeyringAccount(cfg))
	if err == nil && strings.TrimSpace(k) != "" {
		return strings.TrimSpace(k), nil
	}
	if env := strings.TrimSpace(cfg.Model.APIKeyEnv); env != "" {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	return "", errors.New("model API key not found (set it in keychain or via env)")
}

func SetModelKey(cfg config.Config, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, ModelKeyringAccount(cfg), strings.TrimSpace(key))
}

func DeleteModelKey(cfg config.Config) error {
	err := keyring.Delete(KeyringService, ModelKeyringAccount(cfg))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ModelKeyFunc adapts GetModelKey to the model package. cfg is read on
// every call so config edits take effect without a restart. A missing key
// is reported as "".
func ModelKeyFunc(cfg func() config.Config) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		k, err := GetModelKey(cfg())
		if err != nil {
			return "", nil
		}
		return k, nil
	}
}
