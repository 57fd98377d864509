package config

// Значения по умолчанию для необязательных полей конфигурации.
const (
	DefaultWarnLimit           = 3
	DefaultWordLimit           = 20
	DefaultHTTPTimeoutSeconds  = 90
	DefaultStatusHost          = "127.0.0.1"
	DefaultStatusPort          = 8080
	DefaultShutdownTimeoutSecs = 10
	DefaultResolverSessionFile = "tg.session"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)
