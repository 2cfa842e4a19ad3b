package config

func loadTestConfig(cfg *Config) {
	cfg.CacheDir = "./tmp/test-cache"
	cfg.DatabaseFilePath = ":memory:"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.ScanWorkers = 2
}
