// Package neural turns raw completions from the worker pool into chat
// replies: plain completions, answers to questions and script lines.
package neural

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"

	"github.com/iamwavecut/shrek-bot/internal/prose"
)

const (
	DefaultEndOfText       = "<|endoftext|>"
	DefaultMaxPromptTokens = 1024
	DefaultAnswerLength    = 100
)

// Generator produces the prompt followed by its continuation.
// *worker.Pool is the production implementation.
type Generator interface {
	Generate(ctx context.Context, prefix string, length int) (string, error)
}

type Config struct {
	EndOfText       string
	MaxPromptTokens int
	AnswerLength    int
}

type Sampler struct {
	gen          Generator
	codec        tokenizer.Codec
	endOfText    string
	maxTokens    int
	answerLength int
}

func NewSampler(gen Generator, cfg Config) (*Sampler, error) {
	codec, err := tokenizer.Get(tokenizer.R50kBase)
	if err != nil {
		return nil, err
	}
	s := &Sampler{
		gen:          gen,
		codec:        codec,
		endOfText:    cfg.EndOfText,
		maxTokens:    cfg.MaxPromptTokens,
		answerLength: cfg.AnswerLength,
	}
	if s.maxTokens < 2 {
		s.maxTokens = DefaultMaxPromptTokens
	}
	if s.answerLength < 1 {
		s.answerLength = DefaultAnswerLength
	}
	return s, nil
}

// Generate returns seed followed by up to length generated tokens, cut at the
// end-of-text marker. Seeds too long for the model window lose their head.
func (s *Sampler) Generate(ctx context.Context, seed string, length int) (string, error) {
	_, text, err := s.generate(ctx, seed, length)
	return text, err
}

func (s *Sampler) generate(ctx context.Context, seed string, length int) (string, string, error) {
	length = s.clampLength(length)
	prompt := s.truncate(seed, length)

	text, err := s.gen.Generate(ctx, prompt, length)
	if err != nil {
		return prompt, "", err
	}
	if s.endOfText != "" {
		if i := strings.Index(text, s.endOfText); i >= 0 {
			text = text[:i]
		}
	}
	return prompt, text, nil
}

func (s *Sampler) clampLength(length int) int {
	switch {
	case length < 1:
		return 1
	case length > s.maxTokens/2:
		return s.maxTokens / 2
	}
	return length
}

// truncate drops leading tokens of prompt until prompt and length fit the
// model window.
func (s *Sampler) truncate(prompt string, length int) string {
	_, tokens, err := s.codec.Encode(prompt)
	if err != nil {
		return prompt
	}
	overflow := len(tokens) + length - s.maxTokens
	if overflow <= 0 {
		return prompt
	}
	cut := 0
	for _, tok := range tokens[:overflow] {
		cut += len(tok)
	}
	for cut < len(prompt) && !utf8.RuneStart(prompt[cut]) {
		cut++
	}
	if cut > len(prompt) {
		cut = len(prompt)
	}
	return prompt[cut:]
}

// Complete continues prefix and returns the text verbatim, minus the newlines
// the model likes to put around it.
func (s *Sampler) Complete(ctx context.Context, prefix string, length int) (string, error) {
	prefix = strings.TrimRightFunc(prefix, unicode.IsSpace)
	text, err := s.Generate(ctx, prefix, length)
	if err != nil {
		return "", err
	}
	return strings.Trim(text, "\r\n"), nil
}

// Answer generates a reply to question: the echoed question is removed and a
// trailing sentence that was cut off is dropped.
func (s *Sampler) Answer(ctx context.Context, question string) (string, error) {
	prompt, text, err := s.generate(ctx, strings.TrimSpace(question), s.answerLength)
	if err != nil {
		return "", err
	}
	text = strings.TrimPrefix(text, prompt)
	return prose.TrimIncomplete(text), nil
}

// Script continues a chat log formatted as "NAME: line" rows with the next
// line of speaker and returns only that line.
func (s *Sampler) Script(ctx context.Context, script, speaker string, length int) (string, error) {
	prompt := strings.TrimSpace(script) + "\n" + strings.ToUpper(speaker) + ":"
	sent, text, err := s.generate(ctx, prompt, length)
	if err != nil {
		return "", err
	}
	text = strings.TrimPrefix(text, sent)
	text = StripWeirdUnicode(text)
	text = StripTrailingThoughts(text)
	text = StripIncompleteSentences(text)
	return strings.TrimSpace(text), nil
}
