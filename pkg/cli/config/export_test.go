package config

func NewSlackForTest(botToken, apiURL string) *Slack {
	return &Slack{botToken: botToken, apiURL: apiURL}
}

func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{backend: backend, projectID: projectID, postgresDSN: postgresDSN}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewAppConfigForTest(paths ...string) *AppConfig {
	return &AppConfig{paths: paths}
}
