package sync

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/yourusername/garminsync/internal/config"
	"github.com/yourusername/garminsync/internal/store"
)

// Fingerprint derives a one-way account identifier from the configured
// identity material. A stable account id combined with a secret is preferred;
// token-only setups fall back to a hash of the token material. No identity
// material yields no fingerprint.
func Fingerprint(cfg config.GarminConfig) string {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email != "" {
		secret := cfg.Password
		if secret == "" {
			secret = cfg.TokenStoreB64
		}
		if secret == "" {
			return ""
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(email))
		return hex.EncodeToString(mac.Sum(nil))
	}

	// Token-only setups still let us detect that restored persisted data
	// belongs to a different account.
	if cfg.TokenStoreB64 != "" {
		sum := sha256.Sum256([]byte(cfg.TokenStoreB64))
		return hex.EncodeToString(sum[:])
	}

	return ""
}

// guardAccountIdentity resets all derived state when the configured account
// no longer matches the one the persisted data was synced under. Once a
// fingerprint has been written, identity tracking is a one-way ratchet.
func (s *Service) guardAccountIdentity(ctx context.Context) error {
	fingerprint := Fingerprint(s.cfg.Garmin)
	if fingerprint == "" {
		return nil
	}

	stored, err := store.LoadFingerprint(ctx, s.store)
	if err != nil {
		return err
	}
	if stored == fingerprint {
		return nil
	}

	if stored != "" {
		s.logger.Println("detected different Garmin account; resetting persisted data")
		if err := s.resetPersistedData(ctx); err != nil {
			return err
		}
	} else if existing, err := s.hasExistingData(ctx); err != nil {
		return err
	} else if existing {
		s.logger.Println("no account fingerprint found with existing data; resetting persisted data")
		if err := s.resetPersistedData(ctx); err != nil {
			return err
		}
	}

	return store.SaveFingerprint(ctx, s.store, fingerprint, s.now().UTC().Format(time.RFC3339))
}

func (s *Service) hasExistingData(ctx context.Context) (bool, error) {
	keys, err := s.store.Keys(ctx, store.ActivityPrefix)
	if err != nil {
		return false, err
	}
	if len(keys) > 0 {
		return true, nil
	}
	for _, key := range []string{store.KeySummary, store.KeySummaryText, store.KeyCursor} {
		if _, err := s.store.Load(ctx, key); err == nil {
			return true, nil
		} else if err != store.ErrNotFound {
			return false, err
		}
	}
	return false, nil
}

// resetPersistedData removes every derived artifact: raw records, the
// backfill cursor, and the persisted summaries. The fingerprint itself is
// rewritten by the caller.
func (s *Service) resetPersistedData(ctx context.Context) error {
	if err := s.raw.DeleteAll(ctx); err != nil {
		return err
	}
	for _, key := range []string{store.KeyCursor, store.KeySummary, store.KeySummaryText} {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
