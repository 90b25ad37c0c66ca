package config

// LoadFromEnv builds the bridge configuration from the process
// environment. Dev builds read a .env file first so local runs can point
// at a node without exporting anything.
func LoadFromEnv() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	return Load(FromEnviron())
}
