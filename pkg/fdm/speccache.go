package fdm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ftdconf/ftdconf/pkg/swagger"
	"github.com/ftdconf/ftdconf/pkg/util"
)

// SpecIndex fetches and parses the device's API specification. The parsed
// index is held for the lifetime of the session; with SpecCacheDir set, the
// raw document is also cached on disk and reused until SpecCacheTTL passes.
func (s *Session) SpecIndex(ctx context.Context) (*swagger.SpecIndex, error) {
	s.mu.Lock()
	cached := s.index
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	raw, fromDisk := s.readCachedSpec()
	if raw == nil {
		target, err := s.buildURL(specPath, nil, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.doWithAuth(ctx, "GET", target, "", nil)
		if err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, util.NewServerError(resp.StatusCode, decodeErrorBody(resp.Raw))
		}
		raw = resp.Raw
		s.writeCachedSpec(raw)
	}

	index, err := swagger.Parse(raw)
	if err != nil {
		if fromDisk {
			// Stale or truncated cache entry; retry against the device.
			s.dropCachedSpec()
			return s.SpecIndex(ctx)
		}
		return nil, err
	}

	s.mu.Lock()
	s.index = index
	s.validator = swagger.NewValidator(index)
	s.mu.Unlock()
	s.log.WithField("operations", len(index.Operations)).Debug("Parsed device API specification")
	return index, nil
}

// Validator returns a validator over the device's API specification,
// fetching the specification first when needed.
func (s *Session) Validator(ctx context.Context) (*swagger.Validator, error) {
	if _, err := s.SpecIndex(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator, nil
}

func (s *Session) specCachePath() string {
	if s.cfg.SpecCacheDir == "" {
		return ""
	}
	host := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s.cfg.Hostname)
	return filepath.Join(s.cfg.SpecCacheDir, fmt.Sprintf("spec-%s.json", host))
}

func (s *Session) readCachedSpec() ([]byte, bool) {
	path := s.specCachePath()
	if path == "" || s.cfg.SpecCacheTTL <= 0 {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > s.cfg.SpecCacheTTL {
		return nil, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	s.log.Debugf("using cached API specification from %s", path)
	return raw, true
}

func (s *Session) writeCachedSpec(raw []byte) {
	path := s.specCachePath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.log.Debugf("spec cache disabled: %v", err)
		return
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		s.log.Debugf("spec cache write failed: %v", err)
	}
}

func (s *Session) dropCachedSpec() {
	if path := s.specCachePath(); path != "" {
		_ = os.Remove(path)
	}
}
