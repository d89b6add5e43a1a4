package gembot

import "go.uber.org/zap"

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "memory"
	addrs    []string
	username string
	password string
	redisDB  int

	apiKey             string
	baseURL            string
	chatModel          string
	embeddingModel     string
	transcriptionModel string

	bookPath     string
	chunkWords   int
	overlapWords int
	topK         int
	bookTemp     float32
	bookPrompt   string
	bookCommand  string

	agendaPath string
	agendaYear int

	chatPrompt string
	chatTemp   float32

	logger *zap.Logger
}

// WithRedis stores notes and the embedding cache in a Redis instance.
// Without it the client keeps everything in memory.
func WithRedis(addr, username, password string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.username = username
		c.password = password
		c.redisDB = db
	})
}

// WithProvider sets the OpenAI-compatible API credentials. The base URL may
// be empty for the default endpoint.
func WithProvider(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithModels overrides the chat, embedding, and transcription models.
// Empty strings keep the defaults.
func WithModels(chat, embedding, transcription string) Option {
	return optionFunc(func(c *clientConfig) {
		if chat != "" {
			c.chatModel = chat
		}
		if embedding != "" {
			c.embeddingModel = embedding
		}
		if transcription != "" {
			c.transcriptionModel = transcription
		}
	})
}

// WithBook sets the reference book file (.pdf or plain text). The book is
// not ingested until IngestBook is called.
func WithBook(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.bookPath = path
	})
}

// WithChunking overrides chunk size and overlap in words.
// Defaults: 200 words, 50 overlap.
func WithChunking(words, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkWords = words
		c.overlapWords = overlap
	})
}

// WithTopK sets the default retrieval depth for book answers. Default: 3.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithBookCommand sets the message prefix that forces the book path.
// Default: "/libro".
func WithBookCommand(command string) Option {
	return optionFunc(func(c *clientConfig) {
		c.bookCommand = command
	})
}

// WithAgenda sets the agenda file (.json or .csv) and the year used to
// resolve day/month dates. year 0 means the current year.
func WithAgenda(path string, year int) Option {
	return optionFunc(func(c *clientConfig) {
		c.agendaPath = path
		c.agendaYear = year
	})
}

// WithChatPrompt sets the base system prompt for free chat.
func WithChatPrompt(prompt string) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatPrompt = prompt
	})
}

// WithLogger sets a zap logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = logger
	})
}
