package service

import (
	"context"
	"strconv"

	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/ports"
)

type ConfigService struct {
	repo ports.ConfigRepository
}

func NewConfigService(repo ports.ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

func (s *ConfigService) GetConfig(ctx context.Context) (*model.Config, error) {
	return s.repo.Get(ctx)
}

func (s *ConfigService) UpdateConfig(ctx context.Context, cfg *model.Config) error {
	return s.repo.Save(ctx, cfg)
}

// Resolve loads the stored config and fills gaps from the environment. When
// the environment supplied credentials the stored file had none of, the
// merged config is saved so the next start does not need them.
func (s *ConfigService) Resolve(ctx context.Context, getenv func(string) string) (*model.Config, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	stored := cfg.Configured()
	if v := getenv("MYKO_USERNAME"); v != "" && cfg.Username == "" {
		cfg.Username = v
	}
	if v := getenv("MYKO_PASSWORD"); v != "" && cfg.Password == "" {
		cfg.Password = v
	}
	if v := getenv("MYKO_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := getenv("LOCAL_IP"); v != "" {
		cfg.LocalIP = v
	}
	if v := getenv("MYKO_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}

	if !stored && cfg.Configured() {
		if err := s.repo.Save(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
