package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
)

// runState tracks pipeline progress within a single run. States are
// never re-entered.
type runState string

const (
	stateIdle       runState = "idle"
	stateFetching   runState = "fetching"
	stateFiltering  runState = "filtering"
	stateRendering  runState = "rendering"
	stateDelivering runState = "delivering"
	stateCommitting runState = "committing"
	stateDone       runState = "done"
	stateSkipped    runState = "skipped"
	stateFailed     runState = "failed"
)

// PipelineDeps wires all driven adapters into the digest run.
type PipelineDeps struct {
	Fetcher    ports.FeedFetcher
	Parser     ports.FeedParser
	Store      ports.SeenStore
	Renderer   ports.DigestRenderer
	Dispatcher *Dispatcher
	Logger     *slog.Logger
}

// Pipeline implements one digest run: fetch, parse, filter, render,
// deliver, commit.
type Pipeline struct {
	fetcher    ports.FeedFetcher
	parser     ports.FeedParser
	store      ports.SeenStore
	renderer   ports.DigestRenderer
	dispatcher *Dispatcher
	logger     *slog.Logger

	feedURL   string
	recipient string
	location  *time.Location
}

// NewPipeline constructs the orchestration component. Feed URL and
// recipient come from configuration, not ambient state.
func NewPipeline(deps PipelineDeps, feedURL, recipient string, location *time.Location) *Pipeline {
	if location == nil {
		location = time.UTC
	}
	return &Pipeline{
		fetcher:    deps.Fetcher,
		parser:     deps.Parser,
		store:      deps.Store,
		renderer:   deps.Renderer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		feedURL:    feedURL,
		recipient:  recipient,
		location:   location,
	}
}

// Run executes a single digest run triggered at the given time. The seen
// set is committed only after a provider confirms delivery; skip and
// failure paths leave it untouched. The returned RunResult always
// distinguishes sent, skipped-empty, and failed.
func (p *Pipeline) Run(ctx context.Context, trigger time.Time) (domain.RunResult, error) {
	state := stateIdle
	defer func() {
		if p.store != nil {
			if err := p.store.Release(ctx); err != nil {
				p.log("release seen store", "error", err)
			}
		}
	}()

	label := trigger.In(p.location).Format("Monday, January 2, 2006")

	state = p.transition(state, stateFetching)
	raw, err := p.fetcher.Fetch(ctx, p.feedURL)
	if err != nil {
		p.transition(state, stateFailed)
		return domain.RunResult{Outcome: domain.OutcomeFailed}, fmt.Errorf("fetch feed: %w", err)
	}

	articles, err := p.parser.Parse(raw)
	if err != nil {
		p.transition(state, stateFailed)
		return domain.RunResult{Outcome: domain.OutcomeFailed}, fmt.Errorf("parse feed: %w", err)
	}

	state = p.transition(state, stateFiltering)
	fresh := articles
	if p.store != nil {
		fresh, err = p.store.FilterNew(ctx, articles)
		if err != nil {
			p.transition(state, stateFailed)
			return domain.RunResult{Outcome: domain.OutcomeFailed}, fmt.Errorf("filter seen: %w", err)
		}
	}

	if len(fresh) == 0 {
		p.transition(state, stateSkipped)
		p.log("no new articles, skipping run", "total", len(articles))
		return domain.RunResult{Outcome: domain.OutcomeSkippedEmpty}, nil
	}

	state = p.transition(state, stateRendering)
	digest, err := p.renderer.Render(fresh, label)
	if err != nil {
		p.transition(state, stateFailed)
		return domain.RunResult{Outcome: domain.OutcomeFailed}, fmt.Errorf("render digest: %w", err)
	}

	state = p.transition(state, stateDelivering)
	attempts, err := p.dispatcher.Send(ctx, digest, p.recipient)
	if err != nil {
		p.transition(state, stateFailed)
		return domain.RunResult{
			DeliveryAttempts: attempts,
			Outcome:          domain.OutcomeFailed,
		}, fmt.Errorf("deliver digest: %w", err)
	}

	state = p.transition(state, stateCommitting)
	if p.store != nil {
		if err := p.store.Commit(ctx, fresh); err != nil {
			// Delivery went out; the uncommitted articles are resent next
			// run, which is idempotent for the subscriber.
			p.transition(state, stateFailed)
			return domain.RunResult{
				ArticlesSent:     len(fresh),
				DeliveryAttempts: attempts,
				Outcome:          domain.OutcomeFailed,
			}, fmt.Errorf("commit seen: %w", err)
		}
	}

	p.transition(state, stateDone)
	p.log("digest sent", "articles", len(fresh), "attempts", len(attempts))

	return domain.RunResult{
		ArticlesSent:     len(fresh),
		DeliveryAttempts: attempts,
		Outcome:          domain.OutcomeSent,
	}, nil
}

func (p *Pipeline) transition(from, to runState) runState {
	if p.logger != nil {
		p.logger.Debug("state transition", "from", string(from), "to", string(to))
	}
	return to
}

func (p *Pipeline) log(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
