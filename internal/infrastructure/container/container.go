// Package container provides dependency injection for the application.
package container

import (
	"context"
	"log/slog"
	"path/filepath"

	haspermission "github.com/mstuart/has-permission"
	apperrors "github.com/mstuart/has-permission/internal/application/errors"
	"github.com/mstuart/has-permission/internal/application/ports"
	"github.com/mstuart/has-permission/internal/application/services"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
	infraCapabilities "github.com/mstuart/has-permission/internal/infrastructure/capabilities"
	"github.com/mstuart/has-permission/internal/infrastructure/system"
)

// Container holds all application dependencies.
type Container struct {
	systemCfg     *system.Config
	grantStore    *infraCapabilities.FileStore
	gatekeeper    *services.CapabilityGatekeeper
	logger        *slog.Logger
	securityLevel system.SecurityLevel
	enabled       bool
}

// Options configure the container.
type Options struct {
	Logger *slog.Logger

	// SystemConfigPath defaults to ~/.has-permission/config.yaml.
	SystemConfigPath string

	// GrantsPath defaults to grants.yaml next to the system config.
	GrantsPath string

	// SecurityLevel overrides the config file when set.
	SecurityLevel string

	// Enabled overrides permission.enabled from the config file when non-nil.
	Enabled *bool

	// Prompter defaults to the terminal prompter.
	Prompter ports.CapabilityPrompter
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	configPath := opts.SystemConfigPath
	if configPath == "" {
		defaultPath, err := system.DefaultConfigPath()
		if err != nil {
			return nil, apperrors.NewConfigurationError("config", "no default config location", err)
		}
		configPath = defaultPath
	}

	systemCfg, err := system.NewConfigLoader().Load(configPath)
	if err != nil {
		return nil, apperrors.NewConfigurationError("config", "failed to load system config", err)
	}
	opts.Logger.Debug("loaded system config", "path", configPath, "enabled", systemCfg.Permission.Enabled)

	grantsPath := opts.GrantsPath
	if grantsPath == "" {
		grantsPath = filepath.Join(filepath.Dir(configPath), "grants.yaml")
	}
	grantStore := infraCapabilities.NewFileStore(grantsPath)

	// Command-line flag takes precedence over config file
	securityLevel := systemCfg.Security.GetSecurityLevel()
	if opts.SecurityLevel != "" {
		securityLevel = system.ParseSecurityLevel(opts.SecurityLevel)
	}

	enabled := systemCfg.Permission.Enabled
	if opts.Enabled != nil {
		enabled = *opts.Enabled
	}

	prompter := opts.Prompter
	if prompter == nil {
		prompter = infraCapabilities.NewTerminalPrompter()
	}

	return &Container{
		systemCfg:     systemCfg,
		grantStore:    grantStore,
		gatekeeper:    services.NewCapabilityGatekeeper(grantStore, prompter, securityLevel),
		logger:        opts.Logger,
		securityLevel: securityLevel,
		enabled:       enabled,
	}, nil
}

// Enabled reports whether the permission model is enforced.
func (c *Container) Enabled() bool {
	return c.enabled
}

// SecurityLevel returns the effective security level.
func (c *Container) SecurityLevel() system.SecurityLevel {
	return c.securityLevel
}

// GrantStore returns the user grants store.
func (c *Container) GrantStore() ports.GrantStore {
	return c.grantStore
}

// Gatekeeper returns the capability gatekeeper.
func (c *Container) Gatekeeper() *services.CapabilityGatekeeper {
	return c.gatekeeper
}

// Oracle builds the permission oracle from inline grants, the user grants
// file, the configured grant files and extra. It returns nil when the
// permission model is disabled.
func (c *Container) Oracle(ctx context.Context, extra capabilities.Grant) (haspermission.Oracle, error) {
	if !c.enabled {
		c.logger.Debug("permission model disabled, every check is granted")
		return nil, nil
	}

	stores := []ports.GrantStore{c.grantStore}
	for _, path := range c.systemCfg.Permission.GrantFiles {
		stores = append(stores, infraCapabilities.NewFileStore(path))
	}

	inline := c.systemCfg.ToCapabilities()
	inline.Merge(extra)

	oracle, err := services.LoadGrantOracle(ctx, inline, stores...)
	if err != nil {
		return nil, apperrors.NewConfigurationError("grants", "failed to load grants", err)
	}
	return oracle, nil
}

// Gate builds a permission gate over Oracle.
func (c *Container) Gate(ctx context.Context) (*haspermission.Gate, error) {
	oracle, err := c.Oracle(ctx, nil)
	if err != nil {
		return nil, err
	}
	return haspermission.NewGate(oracle), nil
}
