package consts

import (
	"time"
)

const (
	DurationRetryRequest = 5 * time.Second

	IntRetryAttempts = 3

	MinTimeBetweenRequests = 2 * time.Second

	DurationTyping = 5 * time.Second

	// gpt2 on a single worker is slow, and requests queue behind each other
	DurationAnswerTimeout = 3 * time.Minute

	DurationFetchTimeout = 30 * time.Second

	IntMaxPageBytes = 5 << 20

	IntMessagesPerSecond = 20

	IntScriptLines  = 20
	IntScriptLength = 100
)
