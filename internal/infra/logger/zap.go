package logger

import "go.uber.org/zap"

// dev はコンソール向け、それ以外は JSON
func New(goEnv string) (*zap.Logger, error) {
	if goEnv == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
