package handlers

import (
	"context"
	"fmt"

	"github.com/iamwavecut/tool"
	"github.com/mr-linch/go-tg"
	"github.com/mr-linch/go-tg/tgb"

	"github.com/iamwavecut/shrek-bot/internal/bot"
	"github.com/iamwavecut/shrek-bot/internal/config"
	"github.com/iamwavecut/shrek-bot/internal/i18n"
	"github.com/iamwavecut/shrek-bot/resources/consts"
)

func Start(botName string) func(ctx context.Context, msg *tgb.MessageUpdate) error {
	return func(ctx context.Context, msg *tgb.MessageUpdate) error {
		lang := config.Get().DefaultLanguage
		if msg.From != nil {
			lang = tool.NonZero(msg.From.LanguageCode, lang)
		}
		bot.Forget(msg.Chat.ID.PeerID())

		return msg.Answer(
			tg.HTML.Text(
				tg.HTML.Bold(fmt.Sprintf(i18n.Get(consts.StrHello, lang), botName)),
				"",
				tg.HTML.Escape(i18n.Get(consts.StrIntro, lang)),
			),
		).ParseMode(tg.HTML).DoVoid(ctx)
	}
}
