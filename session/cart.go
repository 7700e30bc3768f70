package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"storefront/storage"
)

const (
	cartPrefix    = "CART_"
	cartSuffixLen = 9
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GetOrCreateCartID returns the browser's cart code, minting one on first
// use. Concurrent first calls agree on a single code.
func (s *Store) GetOrCreateCartID(ctx context.Context) (string, error) {
	code, err := s.Storage.Get(ctx, KeyCartCode)
	switch {
	case err == nil && code != "":
		return code, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("read cart code: %w", err)
	}

	blank := err == nil
	fresh, err := s.newCartID()
	if err != nil {
		return "", err
	}
	if blank {
		// an empty code is present, SetIfAbsent would keep it
		if err := s.Storage.Set(ctx, map[string]string{KeyCartCode: fresh}); err != nil {
			return "", fmt.Errorf("store cart code: %w", err)
		}
		return fresh, nil
	}
	code, err = s.Storage.SetIfAbsent(ctx, KeyCartCode, fresh)
	if err != nil {
		return "", fmt.Errorf("store cart code: %w", err)
	}
	if code == fresh {
		s.log().Debug("cart code created", zap.String("cart_code", code))
	}
	return code, nil
}

// newCartID formats CART_<unix millis>_<9 base36 chars>.
func (s *Store) newCartID() (string, error) {
	suffix, err := randomBase36(cartSuffixLen)
	if err != nil {
		return "", err
	}
	return cartPrefix + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + suffix, nil
}

func randomBase36(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			// 252 is the largest multiple of 36 below 256
			if b >= 252 {
				continue
			}
			out = append(out, base36[b%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
