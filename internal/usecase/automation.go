package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
)

type AutomationUseCase struct {
	Settings entity.AutomationRepositoryInterface
	Logger   *zap.Logger
}

func NewAutomationUseCase(settings entity.AutomationRepositoryInterface, logger *zap.Logger) *AutomationUseCase {
	return &AutomationUseCase{Settings: settings, Logger: logger}
}

// List returns every known automation, falling back to defaults for rows not yet stored.
func (uc *AutomationUseCase) List(ctx context.Context) ([]*entity.AutomationSetting, error) {
	stored, err := uc.Settings.List(ctx)
	if err != nil {
		return nil, dbError("failed to list automations", err)
	}
	byKey := make(map[string]*entity.AutomationSetting, len(stored))
	for _, s := range stored {
		byKey[s.Key] = s
	}

	out := make([]*entity.AutomationSetting, 0, len(entity.DefaultAutomations()))
	for _, def := range entity.DefaultAutomations() {
		if s, ok := byKey[def.Key]; ok {
			out = append(out, s)
			continue
		}
		d := def
		out = append(out, &d)
	}
	return out, nil
}

func (uc *AutomationUseCase) Set(ctx context.Context, key string, enabled bool, userID string) (*entity.AutomationSetting, error) {
	def, ok := defaultAutomation(key)
	if !ok {
		return nil, notFound("automation")
	}

	setting, err := uc.Settings.FindByKey(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, entity.ErrAutomationNotFound):
		setting = &def
	default:
		return nil, dbError("failed to load automation", err)
	}

	setting.Enabled = enabled
	setting.UpdatedBy = userID
	setting.UpdatedAt = time.Now()
	if err := uc.Settings.Upsert(ctx, setting); err != nil {
		return nil, dbError("failed to save automation", err)
	}

	uc.Logger.Info("⚙️ automation changed",
		zap.String("key", key),
		zap.Bool("enabled", enabled),
		zap.String("user_id", userID),
	)
	return setting, nil
}

// Enabled nunca falha: em erro de banco vale o default.
func (uc *AutomationUseCase) Enabled(ctx context.Context, key string) bool {
	def, ok := defaultAutomation(key)
	if !ok {
		return false
	}
	setting, err := uc.Settings.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, entity.ErrAutomationNotFound) {
			uc.Logger.Warn("⚠️ automation lookup failed, using default", zap.String("key", key), zap.Error(err))
		}
		return def.Enabled
	}
	return setting.Enabled
}

func defaultAutomation(key string) (entity.AutomationSetting, bool) {
	for _, d := range entity.DefaultAutomations() {
		if d.Key == key {
			return d, true
		}
	}
	return entity.AutomationSetting{}, false
}
