// internal/token/vaultkeys.go
//
// Vault-backed signing keys.  Each key lives at one KV-v2 secret path as
// {"active": "<kid>", "<kid>": "<secret>", ...}; rotating means writing
// a new kid and flipping "active".  Values are cached briefly so token
// issuance does not hit Vault per request.
package token

import (
	"context"
	"time"

	"github.com/sitelet/sitelet/internal/vault"
)

const keyCacheTTL = time.Minute

// VaultKeys implements KeyProvider over a Vault KV-v2 secret.
type VaultKeys struct {
	Client *vault.Client
	Path   string
}

func (v VaultKeys) Active() (string, []byte, error) {
	ctx := context.Background()
	kid, err := v.Client.GetKV(ctx, v.Path, "active", keyCacheTTL)
	if err != nil {
		return "", nil, err
	}
	key, err := v.Client.GetKV(ctx, v.Path, kid, keyCacheTTL)
	if err != nil {
		return "", nil, err
	}
	return kid, []byte(key), nil
}

func (v VaultKeys) ByID(kid string) ([]byte, error) {
	key, err := v.Client.GetKV(context.Background(), v.Path, kid, keyCacheTTL)
	if err != nil {
		return nil, err
	}
	return []byte(key), nil
}
