package config

const (
	defaultProjectDir       = "~/.local/share/playhead/projects"
	defaultStorePath        = "~/.local/share/playhead/playhead.db"
	defaultEngineFPS        = 30
	defaultTickRate         = 60
	defaultTimelineFPS      = 30
	defaultAutosaveInterval = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
			StorePath:  defaultStorePath,
		},
		Engine: Engine{
			DefaultClipFPS: defaultEngineFPS,
			TickRate:       defaultTickRate,
		},
		Director: Director{
			TimelineFPS: defaultTimelineFPS,
		},
		Autosave: Autosave{
			Enabled:         true,
			IntervalSeconds: defaultAutosaveInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
