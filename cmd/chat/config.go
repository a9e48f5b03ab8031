package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Endpoint         string        `env:"CHAT_ENDPOINT,required=true" validate:"required,url"`
	APIURL           string        `env:"API_URL,required=true" validate:"required,url"`
	APIToken         string        `env:"API_TOKEN"`
	TokenKey         string        `env:"TOKEN_KEY"`
	LocalLogin       string        `env:"LOCAL_LOGIN"`
	PartnerID        int64         `env:"PARTNER_ID,required=true" validate:"gt=0"`
	PartnerLogin     string        `env:"PARTNER_LOGIN,required=true" validate:"required"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,default=10s"`
	ResolveTimeout   time.Duration `env:"RESOLVE_TIMEOUT,default=10s"`
	HeartBeat        time.Duration `env:"HEART_BEAT,default=10s"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT,default=10s"`
	PersistTimeout   time.Duration `env:"PERSIST_TIMEOUT,default=5s"`
	PersistQueueSize int           `env:"PERSIST_QUEUE_SIZE,default=256" validate:"gt=0"`
	StreamBufferSize int           `env:"STREAM_BUFFER_SIZE,default=64" validate:"gt=0"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s"`
	ReportInterval   time.Duration `env:"REPORT_INTERVAL,default=1m" validate:"gt=0"`
	UserCacheTTL     time.Duration `env:"USER_CACHE_TTL,default=1h"`
	BadgerFilepath   string        `env:"BADGER_FILEPATH,default=./data/badger" validate:"required"`
	BlugeFilepath    string        `env:"BLUGE_FILEPATH,default=./data/bluge" validate:"required"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// tokenKey is nil when no key is configured, tokens are then read unverified.
func (c Config) tokenKey() []byte {
	if c.TokenKey == "" {
		return nil
	}
	return []byte(c.TokenKey)
}
