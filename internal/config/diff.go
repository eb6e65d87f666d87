package config

// ConfigDiff describes what changed between two configs. Only fields that
// are safe to react to without restarting the process are tracked; a change
// to brain.order or storage.postgres_dsn is not (it would invalidate the
// live trie or an open pool), so those are deliberately not diffed here.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	DataChanged bool
	NewData     DataConfig
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Data != new.Data {
		d.DataChanged = true
		d.NewData = new.Data
	}

	return d
}
