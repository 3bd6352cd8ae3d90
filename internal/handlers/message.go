package handlers

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/mr-linch/go-tg"
	"github.com/mr-linch/go-tg/tgb"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iamwavecut/shrek-bot/internal/bot"
	"github.com/iamwavecut/shrek-bot/internal/config"
	"github.com/iamwavecut/shrek-bot/internal/i18n"
	"github.com/iamwavecut/shrek-bot/resources/consts"
)

const typingDelay = time.Second

// Message feeds every text message to the bot core and delivers what it
// answers. Slow generations keep the typing indicator on.
func Message(
	b *bot.Bot, me *tg.User, client *tg.Client, rateLimiter *rate.Limiter,
) func(ctx context.Context, msg *tgb.MessageUpdate) error {
	mention := MentionRegexp(me)

	return func(ctx context.Context, msg *tgb.MessageUpdate) error {
		if msg.Text == "" || msg.From == nil {
			return nil
		}
		lang := tool.NonZero(msg.From.LanguageCode, config.Get().DefaultLanguage)
		mentioned := msg.Chat.Type == tg.ChatTypePrivate ||
			mention.MatchString(msg.Text) ||
			isReplyTo(msg.Message, me)
		in := bot.Message{
			ChatID:    msg.Chat.ID.PeerID(),
			Author:    getFullName(msg.From),
			Lang:      lang,
			Text:      msg.Text,
			Mentioned: mentioned,
		}

		parent := ctx
		ctx, cancel := context.WithTimeout(ctx, consts.DurationAnswerTimeout)
		defer cancel()

		result := make(chan []bot.Response, 1)
		go func() {
			result <- b.Dispatch(ctx, in)
		}()

		typing := time.NewTimer(typingDelay)
		defer typing.Stop()
		for {
			select {
			case out := <-result:
				return deliver(parent, rateLimiter, msg, out)
			case <-ctx.Done():
				log.WithField("chat", in.ChatID).Warnln("answer timed out")
				return msg.Answer(i18n.Get(consts.StrTimeout, lang)).DoVoid(parent)
			case <-typing.C:
				_ = client.SendChatAction(msg.Chat.ID, tg.ChatActionTyping).DoVoid(ctx)
				typing.Reset(consts.DurationTyping)
			}
		}
	}
}

// MentionRegexp matches the bot's first name or username anywhere in a text.
func MentionRegexp(me *tg.User) *regexp.Regexp {
	names := []string{regexp.QuoteMeta(me.FirstName)}
	if username := strings.TrimPrefix(string(me.Username), "@"); username != "" {
		names = append(names, "@?"+regexp.QuoteMeta(username))
	}
	return regexp.MustCompile(`(?i)(?:^|\W)(?:` + strings.Join(names, "|") + `)(?:\W|$)`)
}

func isReplyTo(msg *tg.Message, me *tg.User) bool {
	return msg.ReplyToMessage != nil &&
		msg.ReplyToMessage.From != nil &&
		msg.ReplyToMessage.From.ID == me.ID
}

func deliver(ctx context.Context, rateLimiter *rate.Limiter, msg *tgb.MessageUpdate, out []bot.Response) error {
	for _, r := range out {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		if err := rateLimiter.Wait(ctx); err != nil {
			return err
		}

		var err error
		switch {
		case r.Upload:
			err = msg.AnswerDocument(
				tg.NewFileArgUpload(tg.NewInputFileBytes(r.Filename, []byte(r.Text))),
			).DoVoid(ctx)
		case r.Reply:
			err = msg.Answer(r.Text).
				ReplyToMessageID(msg.ID).
				AllowSendingWithoutReply(true).
				DoVoid(ctx)
		default:
			err = msg.Answer(r.Text).DoVoid(ctx)
		}
		if tool.Try(err) {
			log.WithError(err).WithField("chat", msg.Chat.ID.PeerID()).Errorln("cant deliver response")
			tool.Try(msg.Answer(consts.StrRequestError).DoVoid(ctx), true)
			return err
		}
	}
	return nil
}

func getFullName(user *tg.User) string {
	userName := user.FirstName + " " + user.LastName
	userName = strings.TrimSpace(userName)
	if len(userName) == 0 {
		userName = strings.TrimPrefix(user.Username.PeerID(), "@")
	}
	if len(userName) == 0 {
		userName = user.ID.PeerID()
	}
	return userName
}
