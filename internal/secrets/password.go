// Package secrets wraps the OS keychain for every credential a discovery
// run might need beyond the on-disk browser profile (which already
// persists site login cookies): the IMAP app password, and the Adzuna/
// RapidAPI API keys, for users who'd rather not keep them in config.yml or
// the environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"jobtrawl/internal/config"
)

// KeyringService groups every secret this module stores under one service
// name in the OS keychain.
const KeyringService = "jobtrawl"

// Kind enumerates the credential kinds this module manages; each maps to
// a distinct keyring account namespace.
type Kind string

const (
	KindIMAPPassword Kind = "imap"
	KindAdzunaAppKey Kind = "adzuna"
	KindRapidAPIKey  Kind = "rapidapi"
)

func Get(kind Kind, account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("secrets: account name is empty")
	}
	v, err := keyring.Get(KeyringService, string(kind)+":"+account)
	if err != nil {
		return "", fmt.Errorf("secrets: get %s/%s: %w", kind, account, err)
	}
	return v, nil
}

func Set(kind Kind, account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secrets: value is empty")
	}
	return keyring.Set(KeyringService, string(kind)+":"+account, value)
}

func Delete(kind Kind, account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: account name is empty")
	}
	return keyring.Delete(KeyringService, string(kind)+":"+account)
}

// IMAPAccount derives the keyring account name for a mailbox's app
// password from its config, so callers never need to hand-assemble it.
func IMAPAccount(cfg config.Config) string {
	return fmt.Sprintf("%s@%s", cfg.Email.Username, cfg.Email.IMAPHost)
}

// ResolveIMAPPassword prefers an explicit config value (env-sourced,
// typically) and falls back to the OS keychain.
func ResolveIMAPPassword(cfg config.Config) (string, error) {
	if strings.TrimSpace(cfg.Email.AppPassword) != "" {
		return cfg.Email.AppPassword, nil
	}
	return Get(KindIMAPPassword, IMAPAccount(cfg))
}

// ResolveAdzunaAppID prefers an explicit config value, then the
// ADZUNA_APP_ID environment variable (§6's "absent values disable the
// corresponding optional adapter"), then the OS keychain.
func ResolveAdzunaAppID(cfg config.Config) (string, error) {
	if strings.TrimSpace(cfg.Sources.Adzuna.AppID) != "" {
		return cfg.Sources.Adzuna.AppID, nil
	}
	if v := os.Getenv("ADZUNA_APP_ID"); strings.TrimSpace(v) != "" {
		return v, nil
	}
	return Get(KindAdzunaAppKey, "app_id")
}

// ResolveAdzunaAppKey prefers an explicit config value, then the
// ADZUNA_APP_KEY environment variable, then the OS keychain keyed by the
// configured app_id.
func ResolveAdzunaAppKey(cfg config.Config) (string, error) {
	if strings.TrimSpace(cfg.Sources.Adzuna.AppKey) != "" {
		return cfg.Sources.Adzuna.AppKey, nil
	}
	if v := os.Getenv("ADZUNA_APP_KEY"); strings.TrimSpace(v) != "" {
		return v, nil
	}
	return Get(KindAdzunaAppKey, cfg.Sources.Adzuna.AppID)
}

// ResolveRapidAPIKey prefers an explicit config value, then the
// RAPIDAPI_KEY environment variable (§4.4: "Gated on RAPIDAPI_KEY env
// var"), then the OS keychain under a fixed account name, since RapidAPI
// keys aren't scoped per-tenant the way Adzuna's are.
func ResolveRapidAPIKey(cfg config.Config) (string, error) {
	if strings.TrimSpace(cfg.Sources.JSearch.RapidAPIKey) != "" {
		return cfg.Sources.JSearch.RapidAPIKey, nil
	}
	if v := os.Getenv("RAPIDAPI_KEY"); strings.TrimSpace(v) != "" {
		return v, nil
	}
	return Get(KindRapidAPIKey, "default")
}
