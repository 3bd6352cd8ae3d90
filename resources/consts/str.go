package consts

const (
	StrHello = "Hi, my name is %s!"
	StrIntro = "I learn from everything said around me and talk back.\n" +
		"/markov <words> – a sentence starting with your words\n" +
		"/gpt2 <length> <text> – continue your text\n" +
		"/markov_learn_sentences <url> – learn a web page sentence by sentence\n" +
		"/markov_learn_paragraphs <url> – learn a web page paragraph by paragraph\n" +
		"Add _dry to the learn commands to see what I would learn.\n" +
		"/markov_dump – what I know so far\n" +
		"/reset – forget our recent conversation\n" +
		"Ask me anything ending with a question mark."
	StrTimeout = "I'm sorry, but this takes an unacceptable " +
		"duration of time to answer. Request aborted."
	StrLearned      = "I learned this:"
	StrWouldLearn   = "Here's what I would have learned:"
	StrFetchError   = "I couldn't read that page."
	StrNothingFound = "There was nothing to learn on that page."
	StrReset        = "I forgot everything we talked about."
	StrRequestError = "Unfortunately, there was an error during the request. " +
		"Please try again later. If it doesn't help, " +
		"please contact the maintainer."
)
