package service

import (
	"context"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

// SettingsService reads and writes system settings.
type SettingsService struct {
	base
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(d Deps) *SettingsService {
	return &SettingsService{base: newBase(d)}
}

// All returns every setting as a map.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	return cache.Get(ctx, s.cache, keySettings, 0, func(ctx context.Context) (map[string]string, error) {
		all, err := s.store.ListSettings(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "list settings")
		}
		out := make(map[string]string, len(all))
		for _, st := range all {
			out[st.Key] = st.Value
		}
		return out, nil
	})
}

// Set stores one setting.
func (s *SettingsService) Set(ctx context.Context, key string, req model.SettingRequest) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return invalid("setting key is required")
	}
	if err := s.store.SetSetting(ctx, model.Setting{Key: key, Value: req.Value}); err != nil {
		return pkgerrors.Wrap(err, "set setting")
	}
	s.invalidate(nil, patternSettings)
	return nil
}
