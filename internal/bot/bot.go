// Package bot maps chat messages to the text-generation core and back. It
// knows nothing about the chat platform: messages come in as plain text and
// leave as Responses carrying delivery hints.
package bot

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	t "github.com/alexsergivan/transliterator"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/shrek-bot/internal/i18n"
	"github.com/iamwavecut/shrek-bot/internal/markov"
	"github.com/iamwavecut/shrek-bot/internal/prose"
	"github.com/iamwavecut/shrek-bot/internal/reg"
	"github.com/iamwavecut/shrek-bot/resources/consts"
)

const (
	CmdMarkov             = "markov"
	CmdMarkovDump         = "markov_dump"
	CmdLearnSentences     = "markov_learn_sentences"
	CmdLearnSentencesDry  = "markov_learn_sentences_dry"
	CmdLearnParagraphs    = "markov_learn_paragraphs"
	CmdLearnParagraphsDry = "markov_learn_paragraphs_dry"
	CmdGPT2               = "gpt2"
)

const (
	defaultCompletionLength = 100
	learnedSeparator        = "\n----------\n"
	maxAttachmentNameLen    = 64
	dumpFilename            = "markov.json"
)

var (
	command       = regexp.MustCompile(`(?s)^/([A-Za-z0-9_]+)(?:@\S+)?(?:\s+(.*))?$`)
	gpt2Args      = regexp.MustCompile(`(?s)^(\d+)\s+(.*)$`)
	unsafeFileRun = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

type Store interface {
	Merge(text ...string) error
	Sample(seed string) markov.Result
	Dump() ([]byte, error)
}

type Sampler interface {
	Complete(ctx context.Context, prefix string, length int) (string, error)
	Answer(ctx context.Context, question string) (string, error)
	Script(ctx context.Context, script, speaker string, length int) (string, error)
}

type Fetcher interface {
	Text(ctx context.Context, rawURL string) (string, error)
}

type Message struct {
	ChatID string
	Author string
	Lang   string
	Text   string
	// Mentioned is set when the message addresses the bot directly.
	Mentioned bool
}

// Response is one outgoing message.
type Response struct {
	Text string
	// Reply asks for delivery as a reply to the triggering message.
	Reply bool
	// Upload asks for Text to be delivered as a file named Filename.
	Upload   bool
	Filename string
}

type Bot struct {
	name    string
	store   Store
	sampler Sampler
	fetcher Fetcher
}

// New creates a bot. sampler may be nil when no neural backend is
// configured; generation then degrades to echoing.
func New(name string, store Store, sampler Sampler, fetcher Fetcher) *Bot {
	return &Bot{name: name, store: store, sampler: sampler, fetcher: fetcher}
}

// Dispatch handles one incoming message and returns what to send back.
func (b *Bot) Dispatch(ctx context.Context, msg Message) []Response {
	if m := command.FindStringSubmatch(strings.TrimSpace(msg.Text)); m != nil {
		return b.command(ctx, msg, strings.ToLower(m[1]), strings.TrimSpace(m[2]))
	}
	return b.ambient(ctx, msg)
}

func (b *Bot) command(ctx context.Context, msg Message, name, arg string) []Response {
	switch name {
	case CmdMarkov:
		return []Response{b.Markov(arg)}
	case CmdMarkovDump:
		return []Response{b.Dump()}
	case CmdLearnSentences:
		return b.LearnURL(ctx, msg.Lang, arg, prose.Sentences, false)
	case CmdLearnSentencesDry:
		return b.LearnURL(ctx, msg.Lang, arg, prose.Sentences, true)
	case CmdLearnParagraphs:
		return b.LearnURL(ctx, msg.Lang, arg, prose.Paragraphs, false)
	case CmdLearnParagraphsDry:
		return b.LearnURL(ctx, msg.Lang, arg, prose.Paragraphs, true)
	case CmdGPT2:
		return []Response{b.Complete(ctx, arg)}
	}
	return nil
}

func (b *Bot) ambient(ctx context.Context, msg Message) []Response {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}
	b.remember(msg.ChatID, msg.Author, text)
	b.Learn(text)

	var out []Response
	if i := strings.LastIndex(text, "?"); i >= 0 {
		out = b.Answer(ctx, text[:i+1])
	} else if msg.Mentioned {
		out = b.Script(ctx, msg.ChatID)
	}
	for _, r := range out {
		b.remember(msg.ChatID, b.name, r.Text)
	}
	return out
}

// Learn merges text into the model. Persistence failures are logged; the
// text is learned in memory regardless.
func (b *Bot) Learn(text ...string) {
	if err := b.store.Merge(text...); err != nil {
		log.WithError(err).Errorln("cant persist markov model")
	}
}

// Markov replies with a sentence starting with seed.
func (b *Bot) Markov(seed string) Response {
	res := b.store.Sample(seed)
	log.WithField("tier", res.Tier.String()).Debugln("markov sample")
	return Response{Text: res.Text}
}

func (b *Bot) Dump() Response {
	data, err := b.store.Dump()
	if err != nil {
		log.WithError(err).Errorln("cant dump markov model")
		return Response{Text: consts.StrRequestError}
	}
	return Response{Text: string(data), Upload: true, Filename: dumpFilename}
}

// LearnURL learns the samples split out of the page at rawURL. A dry run only
// reports what would have been learned.
func (b *Bot) LearnURL(ctx context.Context, lang, rawURL string, split func(string) []string, dry bool) []Response {
	raw, err := b.fetcher.Text(ctx, rawURL)
	if err != nil {
		log.WithError(err).WithField("url", rawURL).Warnln("cant fetch page to learn")
		return []Response{{Text: i18n.Get(consts.StrFetchError, lang), Reply: true}}
	}
	samples := split(raw)
	if len(samples) == 0 {
		return []Response{{Text: i18n.Get(consts.StrNothingFound, lang), Reply: true}}
	}

	intro := Response{Text: i18n.Get(consts.StrWouldLearn, lang)}
	if !dry {
		b.Learn(samples...)
		intro = Response{Text: i18n.Get(consts.StrLearned, lang), Reply: true}
	}
	return []Response{intro, {
		Text:     strings.Join(samples, learnedSeparator),
		Upload:   true,
		Filename: attachmentName(rawURL),
	}}
}

// Complete handles "<length> <prefix>". Without a length the default is used.
func (b *Bot) Complete(ctx context.Context, arg string) Response {
	length, prefix := defaultCompletionLength, arg
	if m := gpt2Args.FindStringSubmatch(arg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			length, prefix = n, m[2]
		}
	}
	if b.sampler == nil {
		return Response{Text: prefix}
	}

	text, err := b.sampler.Complete(ctx, prefix, length)
	if err != nil || text == "" {
		log.WithError(err).Warnln("gpt2 completion failed, echoing prefix")
		return Response{Text: prefix}
	}
	return Response{Text: text}
}

// Answer replies to a question in its thread.
func (b *Bot) Answer(ctx context.Context, question string) []Response {
	if b.sampler == nil {
		return nil
	}
	text, err := b.sampler.Answer(ctx, question)
	if err != nil {
		log.WithError(err).Warnln("gpt2 answer failed, echoing question")
		text = question
	}
	if text == "" {
		return nil
	}
	return []Response{{Text: text, Reply: true}}
}

// Script continues the recent conversation in chatID as the bot.
func (b *Bot) Script(ctx context.Context, chatID string) []Response {
	if b.sampler == nil {
		return nil
	}
	lines := reg.Get(historyKey(chatID), []string(nil))
	text, err := b.sampler.Script(ctx, strings.Join(lines, "\n"), b.name, consts.IntScriptLength)
	if err != nil {
		log.WithError(err).Warnln("gpt2 script failed")
		return nil
	}
	if text == "" {
		return nil
	}
	return []Response{{Text: text, Reply: true}}
}

// Forget drops the conversation history of chatID.
func Forget(chatID string) {
	reg.Delete(historyKey(chatID))
}

func historyKey(chatID string) string {
	return "chat_" + chatID
}

func (b *Bot) remember(chatID, speaker, text string) {
	line := strings.ToUpper(strings.TrimSpace(speaker)) + ": " + strings.TrimSpace(text)
	reg.Update(historyKey(chatID), []string(nil), func(lines []string) []string {
		lines = append(lines, line)
		if len(lines) > consts.IntScriptLines {
			lines = lines[len(lines)-consts.IntScriptLines:]
		}
		return lines
	})
}

func attachmentName(rawURL string) string {
	name := strings.TrimSpace(rawURL)
	for _, prefix := range []string{"<", "https://", "http://"} {
		name = strings.TrimPrefix(name, prefix)
	}
	name = strings.TrimSuffix(name, ">")
	name = t.NewTransliterator(nil).Transliterate(name, "en")
	name = strings.Trim(unsafeFileRun.ReplaceAllString(name, "_"), "_.")
	if len(name) > maxAttachmentNameLen {
		name = name[:maxAttachmentNameLen]
	}
	if name == "" {
		name = "learned"
	}
	return name + ".txt"
}
