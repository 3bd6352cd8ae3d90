package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/mr-linch/go-tg"
	"github.com/mr-linch/go-tg/tgb"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iamwavecut/shrek-bot/internal/bot"
	"github.com/iamwavecut/shrek-bot/internal/config"
	"github.com/iamwavecut/shrek-bot/internal/fetch"
	"github.com/iamwavecut/shrek-bot/internal/handlers"
	"github.com/iamwavecut/shrek-bot/internal/infra"
	"github.com/iamwavecut/shrek-bot/internal/markov"
	"github.com/iamwavecut/shrek-bot/internal/neural"
	"github.com/iamwavecut/shrek-bot/internal/worker"
	"github.com/iamwavecut/shrek-bot/resources/consts"
)

func main() {
	ctx := context.Background()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Get()
	config.SetupLogger(cfg.LogLevel)

	go func() {
		code := 0
		if err := run(ctx, cfg); err != nil {
			log.WithError(err).Errorln("bot stopped")
			code = 1
		}
		os.Exit(code)
	}()

	<-infra.MonitorExecutable()
	log.Errorln("executable file was modified")
	os.Exit(0)
}

func run(ctx context.Context, cfg config.Config) error {
	store := markov.NewStore(cfg.Markov.ModelPath, cfg.Markov.StateSize, cfg.Markov.SampleTries)

	var sampler bot.Sampler
	if load := loader(cfg.GPT2); load != nil {
		pool := worker.New(load, cfg.GPT2.PoolSize, cfg.GPT2.MaxTasksPerWorker)
		defer func() {
			tool.Try(pool.Close(), true)
		}()

		s, err := neural.NewSampler(pool, neural.Config{
			EndOfText:       cfg.GPT2.EndOfText,
			MaxPromptTokens: cfg.GPT2.MaxPromptTokens,
			AnswerLength:    cfg.GPT2.AnswerLength,
		})
		if err != nil {
			return err
		}
		sampler = s
	}

	client := tg.New(cfg.TelegramAPIToken)
	me, err := client.GetMe().Do(ctx)
	if err != nil {
		return err
	}
	botName := strings.ToUpper(me.FirstName)

	b := bot.New(botName, store, sampler, fetch.New())
	rateLimiter := rate.NewLimiter(rate.Every(time.Second/consts.IntMessagesPerSecond), consts.IntMessagesPerSecond)

	router := tgb.NewRouter().
		Message(
			handlers.Start(me.FirstName),
			tgb.Command("start", tgb.WithCommandAlias("help")),
		).
		Message(
			handlers.Reset(),
			tgb.Command("reset"),
		).
		Message(
			handlers.Message(b, &me, client, rateLimiter),
			tgb.ChatType(tg.ChatTypePrivate, tg.ChatTypeGroup, tg.ChatTypeSupergroup),
		)

	log.WithFields(log.Fields{
		"bot":     me.Username.PeerID(),
		"backend": cfg.GPT2.Backend,
	}).Infoln("starting")
	return tgb.NewPoller(
		router,
		client,
		tgb.WithPollerRetryAfter(time.Minute),
	).Run(ctx)
}

func loader(cfg config.GPT2) worker.Loader {
	switch cfg.Backend {
	case config.BackendOpenAI:
		return neural.OpenAILoader(neural.OpenAIConfig{
			Token:   cfg.OpenAIToken,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
			Stop:    cfg.EndOfText,
		})
	case config.BackendCommand:
		fields := strings.Fields(cfg.Command)
		return neural.CommandLoader(neural.Command{Path: fields[0], Args: fields[1:]})
	}
	return nil
}
