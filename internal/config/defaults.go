package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			QueueSize: 100,
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Store: StoreConfig{
			Driver:          "sqlite",
			SQLitePath:      "~/.zapbridge/messages.db",
			MongoURI:        "",
			MongoDatabase:   "whatsapp",
			MongoCollection: "messages",
		},
		WhatsApp: WhatsAppConfig{
			SessionPath: "~/.zapbridge/session.db",
			TerminalQR:  true,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}
