// Package container builds the object graph shared by the HTTP server and the
// task worker from a loaded Config and already-connected stores.
package container

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/yoockh/yooassist/config"
	"github.com/yoockh/yooassist/internal/api/handlers"
	"github.com/yoockh/yooassist/internal/api/routes"
	"github.com/yoockh/yooassist/internal/cache"
	"github.com/yoockh/yooassist/internal/embedding"
	"github.com/yoockh/yooassist/internal/events"
	"github.com/yoockh/yooassist/internal/metrics"
	"github.com/yoockh/yooassist/internal/notify"
	"github.com/yoockh/yooassist/internal/providers/external"
	"github.com/yoockh/yooassist/internal/providers/llm"
	"github.com/yoockh/yooassist/internal/providers/stt"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yooassist/internal/repositories/postgres"
	"github.com/yoockh/yooassist/internal/services"
	"github.com/yoockh/yooassist/internal/storage"
	"github.com/yoockh/yooassist/internal/tasks"
	"github.com/yoockh/yooassist/internal/workers"
)

// Stores are the connected handles. Postgres may be nil (archive disabled).
type Stores struct {
	Mongo    *mongo.Database
	Redis    *redis.Client
	Postgres *gorm.DB
}

type Container struct {
	Config  *config.Config
	Log     *logrus.Logger
	Stores  Stores
	Metrics *metrics.Metrics

	Sessions cache.SessionStore
	Queue    *workers.TaskQueue
	Registry *tasks.Registry
	Hub      *notify.Hub
	Notifier *notify.Publisher
	Events   events.Publisher

	Users           services.UserService
	Memory          services.MemoryService
	Preferences     services.PreferenceService
	Context         services.ContextService
	Personalization services.PersonalizationService
	Reminders       services.ReminderService
	Dialogue        services.DialogueService
	Voice           services.VoiceService
	History         services.HistoryService
	// Archive is nil when Postgres is not configured.
	Archive services.ConversationService

	closers []io.Closer
}

// Build wires every service. Optional providers that fail to initialise are logged
// and left out; only programming errors in required dependencies are returned.
func Build(ctx context.Context, cfg *config.Config, st Stores, log *logrus.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if st.Mongo == nil || st.Redis == nil {
		return nil, errors.New("mongo and redis are required")
	}

	c := &Container{Config: cfg, Log: log, Stores: st, Metrics: metrics.New(cfg.Metrics.Namespace)}

	db := st.Mongo
	facts := mongorepo.NewFactRepo(db)

	c.Sessions = cache.NewRedisSessionStore(st.Redis, cfg.Memory.SessionMaxTurns, cfg.Memory.SessionTTL)
	c.Queue = workers.NewTaskQueue(st.Redis, cfg.Tasks.Stream, log)
	c.Notifier = notify.NewPublisher(st.Redis)
	c.Hub = notify.NewHub(notify.DefaultMailboxSize, log)

	embedder := c.buildEmbedder()

	c.Users = services.NewUserService(mongorepo.NewUserRepo(db))
	c.Memory = services.NewMemoryService(facts, mongorepo.NewSemanticRepo(db), embedder,
		services.MemoryConfig{TopK: cfg.Memory.SemanticTopK, ScanCap: cfg.Memory.SemanticScanCap}, log)
	c.Preferences = services.NewPreferenceService(mongorepo.NewPreferenceRepo(db))
	personalLogs := mongorepo.NewPersonalizationLogRepo(db)
	whatsApp := mongorepo.NewWhatsAppRepo(db)
	music := mongorepo.NewMusicRepo(db)
	c.Personalization = services.NewPersonalizationService(personalLogs, c.Preferences)
	c.History = services.NewHistoryService(music, whatsApp, personalLogs)
	c.Reminders = services.NewReminderService(mongorepo.NewReminderRepo(db), c.Queue, c.Notifier, c.Metrics, log)

	chain := c.buildChain(ctx)
	c.Context = services.NewContextService(c.Sessions, c.Memory, c.Preferences, chain,
		services.ContextConfig{HistoryTurns: cfg.Memory.ContextTurns, TopK: cfg.Memory.FactTopK}, log)

	deps := tasks.Deps{
		Notes:     facts,
		Events:    mongorepo.NewEventRepo(db),
		Expenses:  mongorepo.NewExpenseRepo(db),
		WhatsApp:  whatsApp,
		Music:     music,
		Reminders: c.Reminders,
		Notifier:  c.Notifier,
		Delayed:   c.Queue,
		Log:       log,
		Now:       time.Now,
	}
	c.attachExternal(ctx, &deps)
	c.Registry = tasks.NewRegistry(deps)

	if st.Postgres != nil {
		c.Archive = services.NewConversationService(pgrepo.NewConversationRepo(st.Postgres), embedder, log)
	}
	c.Events = c.buildPublisher()
	c.closers = append(c.closers, c.Events)

	dispatcher := tasks.NewDispatcher(c.Queue, tasks.DispatcherConfig{
		Timeout:         cfg.Tasks.Timeout,
		WhatsAppTimeout: cfg.Tasks.WhatsAppTimeout,
	}, log, c.Metrics)

	c.Dialogue = services.NewDialogueService(services.DialogueDeps{
		Users:           c.Users,
		Sessions:        c.Sessions,
		Tasks:           dispatcher,
		Context:         c.Context,
		Personalization: c.Personalization,
		Memory:          c.Memory,
		LLM:             chain,
		Events:          c.Events,
		Observer:        c.Metrics,
		Log:             log,
	})

	c.Voice = services.NewVoiceService(mongorepo.NewVoiceClipRepo(db), c.buildTranscriber(ctx), c.buildUploader(ctx),
		c.Dialogue, cfg.Voice.ClipTTL, log)

	return c, nil
}

func (c *Container) buildEmbedder() embedding.Embedder {
	e := c.Config.Embedding
	if e.Endpoint != "" {
		return embedding.NewHTTPEmbedder(e.Endpoint, e.APIKey, e.Model, e.Dims)
	}
	c.Log.Info("embedding endpoint not set, using local hashing embedder")
	return embedding.NewHashingEmbedder(e.Dims)
}

func (c *Container) buildChain(ctx context.Context) *llm.Chain {
	lc := c.Config.LLM

	var primary llm.Primary
	if lc.Gemini.Project != "" {
		g, err := llm.NewVertexGemini(ctx, lc.Gemini.Project, lc.Gemini.Location, lc.Gemini.Models, lc.Temperature, lc.MaxTokens)
		if err != nil {
			c.Log.WithError(err).Warn("gemini unavailable, chain starts at secondaries")
		} else {
			primary = g
			c.closers = append(c.closers, g)
		}
	}

	var secondaries []llm.Provider
	if lc.OpenAI.APIKey != "" {
		secondaries = append(secondaries, llm.NewOpenAICompatible("openai", lc.OpenAI.BaseURL, lc.OpenAI.APIKey, lc.OpenAI.Model, lc.MaxTokens, lc.Temperature, lc.Timeout))
	}
	if lc.Anthropic.APIKey != "" {
		secondaries = append(secondaries, llm.NewAnthropic(lc.Anthropic.BaseURL, lc.Anthropic.APIKey, lc.Anthropic.Model, lc.MaxTokens, lc.Temperature, lc.Timeout))
	}

	var local llm.Provider
	if lc.Local.URL != "" {
		local = llm.NewOllama(lc.Local.URL, lc.Local.Model, lc.Timeout)
	}

	c.Log.WithFields(logrus.Fields{
		"primary":     primary != nil,
		"secondaries": len(secondaries),
		"local":       local != nil,
	}).Info("llm chain configured")

	return llm.NewChain(primary, secondaries, local, llm.ChainConfig{
		Retries:       lc.Retries,
		RetrySleep:    lc.RetrySleep,
		HealthTimeout: lc.HealthTimeout,
	}, c.Log, c.Metrics)
}

// attachExternal only sets providers that have credentials; a nil provider makes
// its task answer "not configured".
func (c *Container) attachExternal(ctx context.Context, d *tasks.Deps) {
	ec := c.Config.External
	timeout := c.Config.Tasks.Timeout

	if ec.WeatherAPIKey != "" {
		d.Weather = external.NewOpenWeather("", ec.WeatherAPIKey, timeout)
	}
	if ec.NewsAPIKey != "" {
		d.News = external.NewNewsAPI("", ec.NewsAPIKey, timeout)
	}
	if ec.SearchAPIKey != "" && ec.SearchEngineID != "" {
		if s, err := external.NewGoogleSearch(ctx, ec.SearchAPIKey, ec.SearchEngineID); err != nil {
			c.Log.WithError(err).Warn("search provider unavailable")
		} else {
			d.Search = s
		}
	}
	if ec.TranslateAPIKey != "" {
		if t, err := external.NewGoogleTranslate(ctx, ec.TranslateAPIKey); err != nil {
			c.Log.WithError(err).Warn("translate provider unavailable")
		} else {
			d.Translate = t
		}
	}
	if ec.YouTubeAPIKey != "" {
		if y, err := external.NewYouTube(ctx, ec.YouTubeAPIKey); err != nil {
			c.Log.WithError(err).Warn("youtube provider unavailable")
		} else {
			d.YouTube = y
		}
	}
	if ec.WhatsAppToken != "" && ec.WhatsAppPhoneID != "" {
		d.Sender = external.NewWhatsAppCloud(ec.WhatsAppEndpoint, ec.WhatsAppToken, ec.WhatsAppPhoneID, c.Config.Tasks.WhatsAppTimeout)
	}
}

func (c *Container) buildPublisher() events.Publisher {
	kc := c.Config.Kafka
	if len(kc.Brokers) > 0 {
		return events.NewKafkaPublisher(kc.Brokers, kc.Topic)
	}
	if c.Archive != nil {
		return events.NewDirectPublisher(c.Archive)
	}
	return events.NopPublisher{}
}

func (c *Container) buildTranscriber(ctx context.Context) stt.Transcriber {
	if !c.Config.Voice.STTEnabled {
		return nil
	}
	t, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		c.Log.WithError(err).Warn("speech-to-text unavailable, voice uploads will be rejected")
		return nil
	}
	c.closers = append(c.closers, t)
	return t
}

func (c *Container) buildUploader(ctx context.Context) storage.Uploader {
	if c.Config.GCS.Bucket == "" {
		return nil
	}
	u, err := storage.NewGCSUploader(ctx, c.Config.GCS.Bucket)
	if err != nil {
		c.Log.WithError(err).Warn("gcs unavailable, voice clips will not be archived")
		return nil
	}
	c.closers = append(c.closers, u)
	return u
}

// WorkerPool returns a pool that executes queued jobs through the registry.
func (c *Container) WorkerPool() *workers.TaskWorkerPool {
	return &workers.TaskWorkerPool{
		Redis:      c.Stores.Redis,
		Queue:      c.Queue,
		Executor:   c.Registry,
		NumWorkers: c.Config.Tasks.Workers,
		Logger:     c.Log,
		Group:      c.Config.Tasks.Group,
	}
}

func (c *Container) Sweeper() *workers.ReminderSweeper {
	return workers.NewReminderSweeper(c.Reminders, c.Config.Tasks.SweepInterval, c.Log)
}

// ArchiveConsumer is nil unless both Kafka and Postgres are configured.
func (c *Container) ArchiveConsumer() *events.Consumer {
	kc := c.Config.Kafka
	if len(kc.Brokers) == 0 || c.Archive == nil {
		return nil
	}
	return events.NewConsumer(kc.Brokers, kc.Topic, kc.GroupID, c.Archive, c.Stores.Redis, c.Log)
}

func (c *Container) RouteDeps() routes.Deps {
	return routes.Deps{
		Chat:          handlers.NewChatHandler(c.Dialogue),
		WS:            handlers.NewWSHandler(c.Dialogue, c.Hub, c.Metrics, c.Log),
		Voice:         handlers.NewVoiceHandler(c.Voice),
		Preferences:   handlers.NewPreferenceHandler(c.Preferences),
		Reminders:     handlers.NewReminderHandler(c.Reminders),
		Notifications: handlers.NewNotificationHandler(c.Hub),
		Conversation:  handlers.NewConversationHandler(c.Archive),
		History:       handlers.NewHistoryHandler(c.History),
		Metrics:       c.Metrics.Handler(),
	}
}

// Close releases provider clients in reverse order of creation. Store handles
// belong to the caller.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
