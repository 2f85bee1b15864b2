package config

// RebirthPolicy selects what a rebirth does to the actor's identity.
// The two behaviors are deliberately an explicit configuration choice.
type RebirthPolicy string

const (
	// RebirthResetInPlace keeps the actor ID and resets its ledger.
	RebirthResetInPlace RebirthPolicy = "reset_in_place"

	// RebirthNewActor spawns a fresh actor carrying the seed and retires
	// the old record.
	RebirthNewActor RebirthPolicy = "new_actor"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Lifecycle  LifecycleConfig  `mapstructure:"lifecycle" validate:"required"`
	Governance GovernanceConfig `mapstructure:"governance" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Task       TaskConfig       `mapstructure:"task"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LifecycleConfig controls the death/rebirth engine.
type LifecycleConfig struct {
	// RebirthPolicy picks reset-in-place or new-actor semantics.
	RebirthPolicy RebirthPolicy `mapstructure:"rebirth_policy" validate:"required,oneof=reset_in_place new_actor"`
}

// GovernanceConfig points at the external authorizer for irreversible
// lifecycle events.
type GovernanceConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`

	// TimeoutSeconds bounds the blocking authorization call; expiry aborts
	// the transition before any commit.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0,lte=60"`
}

// CacheConfig points at the optional redis instance backing the merit
// leaderboard. An empty URL disables caching; cache failures are never
// fatal to ledger operations.
type CacheConfig struct {
	RedisURL string `mapstructure:"redis_url" validate:"omitempty,uri"`
}

// TaskConfig tunes the background task runner that seals daily audit
// snapshots.
type TaskConfig struct {
	QueueSize           int `mapstructure:"queue_size"             validate:"omitempty,gt=0"`
	WorkerCount         int `mapstructure:"worker_count"           validate:"omitempty,gt=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"omitempty,gt=0"`
}
