package config

type Features struct {
	AuthEnabled     bool `mapstructure:"auth_enabled"`
	CopilotLLM      bool `mapstructure:"copilot_llm"`
	MonitorWatching bool `mapstructure:"monitor_watching"`
}
