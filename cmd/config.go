package main

type Config struct {
	Host              string   `envconfig:"HOST"`
	Port              int      `envconfig:"PORT" default:"3000"`
	AllowedOrigins    []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	LogLevel          string   `envconfig:"LOG_LEVEL" default:"info"`
	ChatHistoryLimit  int      `envconfig:"CHAT_HISTORY_LIMIT" default:"50"`
	SendBufferSize    int      `envconfig:"SEND_BUFFER_SIZE" default:"256"`
	CommandBufferSize int      `envconfig:"COMMAND_BUFFER_SIZE" default:"64"`
}
