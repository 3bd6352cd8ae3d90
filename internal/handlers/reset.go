package handlers

import (
	"context"

	"github.com/iamwavecut/tool"
	"github.com/mr-linch/go-tg/tgb"

	"github.com/iamwavecut/shrek-bot/internal/bot"
	"github.com/iamwavecut/shrek-bot/internal/config"
	"github.com/iamwavecut/shrek-bot/internal/i18n"
	"github.com/iamwavecut/shrek-bot/resources/consts"
)

func Reset() func(ctx context.Context, msg *tgb.MessageUpdate) error {
	return func(ctx context.Context, msg *tgb.MessageUpdate) error {
		bot.Forget(msg.Chat.ID.PeerID())

		lang := config.Get().DefaultLanguage
		if msg.From != nil {
			lang = tool.NonZero(msg.From.LanguageCode, lang)
		}
		return msg.Answer(i18n.Get(consts.StrReset, lang)).DoVoid(ctx)
	}
}
