package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iamwavecut/tool"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendOpenAI  = "openai"
	BackendCommand = "command"
	BackendNone    = "none"
)

var (
	ErrInvalid        = errors.New("invalid config")
	ErrUnknownBackend = errors.New("unknown gpt2 backend")
)

type Config struct {
	TelegramAPIToken string `env:"BOT_TOKEN,required"`
	DefaultLanguage  string `env:"LANG,default=en"`
	LogLevel         string `env:"LOG_LEVEL,default=info"`

	Markov Markov `env:",prefix=MARKOV_"`
	GPT2   GPT2   `env:",prefix=GPT2_"`
}

type Markov struct {
	ModelPath   string `env:"MODEL_PATH,required"`
	SampleTries int    `env:"SAMPLE_TRIES,default=1000"`
	StateSize   int    `env:"STATE_SIZE,default=2"`
}

type GPT2 struct {
	Backend       string `env:"BACKEND,default=openai"`
	Model         string `env:"MODEL,default=gpt2"`
	OpenAIToken   string `env:"OPENAI_TOKEN"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	// Command is split on whitespace; the first field is the executable.
	Command string `env:"COMMAND"`

	PoolSize          int    `env:"POOL_SIZE,default=1"`
	MaxTasksPerWorker int    `env:"MAX_TASKS_PER_WORKER,default=8"`
	EndOfText         string `env:"END_OF_TEXT,default=<|endoftext|>"`
	MaxPromptTokens   int    `env:"MAX_PROMPT_TOKENS,default=1024"`
	AnswerLength      int    `env:"ANSWER_LENGTH,default=100"`
}

var once sync.Once
var globalConfig = &Config{}

func Get() Config {
	once.Do(func() {
		cfg := tool.MustReturn(Process(context.Background(), envconfig.OsLookuper()))
		globalConfig = &cfg
	})
	return *globalConfig
}

// Process reads the configuration from l and validates it.
func Process(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	cfg := Config{}
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Markov.SampleTries < 1:
		return fmt.Errorf("%w: MARKOV_SAMPLE_TRIES must be positive", ErrInvalid)
	case c.Markov.StateSize < 1:
		return fmt.Errorf("%w: MARKOV_STATE_SIZE must be positive", ErrInvalid)
	case c.GPT2.PoolSize < 1:
		return fmt.Errorf("%w: GPT2_POOL_SIZE must be positive", ErrInvalid)
	case c.GPT2.MaxTasksPerWorker < 1:
		return fmt.Errorf("%w: GPT2_MAX_TASKS_PER_WORKER must be positive", ErrInvalid)
	case c.GPT2.MaxPromptTokens < 2:
		return fmt.Errorf("%w: GPT2_MAX_PROMPT_TOKENS is too small", ErrInvalid)
	}

	switch c.GPT2.Backend {
	case BackendOpenAI:
		if c.GPT2.OpenAIToken == "" {
			return fmt.Errorf("%w: GPT2_OPENAI_TOKEN is required for the openai backend", ErrInvalid)
		}
	case BackendCommand:
		if c.GPT2.Command == "" {
			return fmt.Errorf("%w: GPT2_COMMAND is required for the command backend", ErrInvalid)
		}
	case BackendNone:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.GPT2.Backend)
	}
	return nil
}
