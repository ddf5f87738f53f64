package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"retitle/internal/config"
	"retitle/internal/db"
	"retitle/internal/logging"
	"retitle/internal/predb"
	"retitle/internal/release"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// environment bundles the live collaborators a command needs: config,
// logger, store handles, and the matcher built from the configured
// thresholds.
type environment struct {
	cfg      *config.Config
	logger   *slog.Logger
	database *db.DB
	releases *release.Store
	catalog  *predb.Store
	matcher  *predb.Matcher
}

// withEnvironment opens the database and logging for one command
// invocation and closes them when fn returns.
func (c *commandContext) withEnvironment(fn func(*environment) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	database, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	catalog := predb.NewStore(database)
	env := &environment{
		cfg:      cfg,
		logger:   logger,
		database: database,
		releases: release.NewStore(database),
		catalog:  catalog,
		matcher: predb.NewMatcher(catalog, predb.MatcherConfig{
			FuzzyEnabled:  cfg.Matching.FuzzyEnabled,
			MinSimilarity: cfg.Matching.MinSimilarity,
			MaxDistance:   cfg.Matching.MaxDistance,
		}, logger),
	}
	return fn(env)
}

// withRunLock acquires the single-writer run lock before running fn.
// Mutating commands take it so overlapping runs never race on the same
// release rows.
func (c *commandContext) withRunLock(fn func(*environment) error) error {
	return c.withEnvironment(func(env *environment) error {
		lock := flock.New(filepath.Join(env.cfg.Paths.LogDir, "retitle.lock"))
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another retitle run is already in progress")
		}
		defer lock.Unlock()
		return fn(env)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
