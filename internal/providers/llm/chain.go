package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StaticApology  = "⚠️ I'm having trouble reaching my language services right now. Please try again in a moment."
	StaticGreeting = "⚠️ Hello! My language services are having technical difficulties right now, but I can still handle reminders, notes and calculations."

	ProvenanceStatic = "fallback:static"
)

// StageObserver receives one call per stage attempt. Outcomes: ok, error, skipped, unhealthy.
type StageObserver interface {
	ObserveStage(stage, outcome string)
}

type ChainConfig struct {
	Retries       int
	RetrySleep    time.Duration
	HealthTimeout time.Duration
}

// Chain tries the primary provider, then each secondary in order, then the local
// provider, then a static reply. Complete never returns an error.
type Chain struct {
	primary     Primary
	secondaries []Provider
	local       Provider
	cfg         ChainConfig
	log         logrus.FieldLogger
	observer    StageObserver

	sleep func(ctx context.Context, d time.Duration) error
}

func NewChain(primary Primary, secondaries []Provider, local Provider, cfg ChainConfig, log logrus.FieldLogger, observer StageObserver) *Chain {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Chain{
		primary:     primary,
		secondaries: secondaries,
		local:       local,
		cfg:         cfg,
		log:         log,
		observer:    observer,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Chain) Complete(ctx context.Context, msgs []Message) Result {
	if res, ok := c.tryPrimary(ctx, msgs); ok {
		return res
	}

	for _, p := range c.secondaries {
		if ctx.Err() != nil {
			break
		}
		if res, ok := c.tryProvider(ctx, "secondary", p, msgs); ok {
			return res
		}
	}

	if c.local != nil && ctx.Err() == nil {
		if res, ok := c.tryProvider(ctx, "local", c.local, msgs); ok {
			return res
		}
	}

	c.observe("static", "ok")
	c.log.WithField("stage", "static").Warn("all llm stages failed, returning static reply")
	return StaticReply(msgs)
}

// StaticReply is the last-resort answer; greetings get a friendlier variant.
func StaticReply(msgs []Message) Result {
	text := StaticApology
	if isGreeting(lastUserText(msgs)) {
		text = StaticGreeting
	}
	return Result{Text: text, Provenance: ProvenanceStatic, Err: true}
}

func isGreeting(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		switch strings.Trim(w, "!?.,") {
		case "hello", "hi", "hey", "greetings":
			return true
		}
	}
	return false
}

// recoverStage turns a provider panic into a failed stage so the chain moves on.
func (c *Chain) recoverStage(stage string, ok *bool) {
	if rec := recover(); rec != nil {
		c.log.WithFields(logrus.Fields{"stage": stage, "panic": rec}).Error("llm provider panicked")
		c.observe(stage, "error")
		*ok = false
	}
}

func (c *Chain) tryPrimary(ctx context.Context, msgs []Message) (res Result, ok bool) {
	defer c.recoverStage("primary", &ok)

	if c.primary == nil {
		c.observe("primary", "skipped")
		return Result{}, false
	}

	hctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	err := c.primary.HealthCheck(hctx)
	cancel()
	if err != nil {
		c.logFailure("primary", c.primary.Name(), "health", err)
		c.observe("primary", "unhealthy")
		return Result{}, false
	}

models:
	for _, model := range c.primary.Models() {
		for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
			if ctx.Err() != nil {
				return Result{}, false
			}
			text, err := c.primary.ChatModel(ctx, model, msgs)
			if err == nil {
				c.observe("primary", "ok")
				return Result{Text: text, Provenance: c.primary.Name() + ":" + model}, true
			}

			pe := AsProviderError(c.primary.Name(), err)
			c.logFailure("primary", c.primary.Name(), model, pe)
			c.observe("primary", "error")

			if pe.Class == ClassAuth {
				// same credentials for every model
				break models
			}
			if !pe.Retryable() {
				continue models
			}
			if attempt < c.cfg.Retries {
				if c.sleep(ctx, c.cfg.RetrySleep) != nil {
					return Result{}, false
				}
			}
		}
	}
	return Result{}, false
}

func (c *Chain) tryProvider(ctx context.Context, stage string, p Provider, msgs []Message) (res Result, ok bool) {
	defer c.recoverStage(stage, &ok)

	text, err := p.Chat(ctx, msgs)
	if err != nil {
		c.logFailure(stage, p.Name(), p.Model(), err)
		c.observe(stage, "error")
		return Result{}, false
	}
	c.observe(stage, "ok")
	return Result{Text: text, Provenance: p.Name() + ":" + p.Model()}, true
}

func (c *Chain) logFailure(stage, provider, model string, err error) {
	pe := AsProviderError(provider, err)
	entry := c.log.WithFields(logrus.Fields{
		"stage":     stage,
		"provider":  provider,
		"model":     model,
		"class":     pe.Class,
		"status":    pe.Status,
		"reachable": pe.Reachable(),
	}).WithError(err)

	if errors.Is(err, context.Canceled) {
		entry.Debug("llm call cancelled")
		return
	}
	if pe.Reachable() {
		entry.Warn("llm provider returned an error")
	} else {
		entry.Warn("llm provider unreachable")
	}
}

func (c *Chain) observe(stage, outcome string) {
	if c.observer != nil {
		c.observer.ObserveStage(stage, outcome)
	}
}
