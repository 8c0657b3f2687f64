package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	killmodels "go-gatewatch/internal/killmails/models"
)

// enrichJob carries one killmail through the worker pool together with its
// ingestion sequence number, so results can be re-ordered before dispatch.
type enrichJob struct {
	seq      uint64
	killmail *killmodels.Killmail
}

// Enricher fans killmails out to a worker pool for the expensive enrichment
// steps (ship classification, pinpoint geometry) and hands the finished kills
// to the dispatch function strictly in ingestion order. Session grouping
// downstream depends on that order.
type Enricher struct {
	categories *ShipCategoryResolver
	pinpoints  *PinpointCalculator
	dispatch   func(ctx context.Context, km *killmodels.Killmail)

	workers int
	jobs    chan *enrichJob
	done    chan *enrichJob

	ctx        context.Context
	nextSeq    atomic.Uint64
	queueDepth atomic.Int64
	started    atomic.Bool

	workerWG   sync.WaitGroup
	dispatchWG sync.WaitGroup
}

// NewEnricher creates an enricher with the given worker pool size. The jobs
// channel is bounded; a full pipeline blocks Submit, which slows the consumer
// poll loop instead of buffering unboundedly.
func NewEnricher(categories *ShipCategoryResolver, pinpoints *PinpointCalculator, workers int, dispatch func(ctx context.Context, km *killmodels.Killmail)) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{
		categories: categories,
		pinpoints:  pinpoints,
		dispatch:   dispatch,
		workers:    workers,
	}
}

// Start launches the worker pool and the ordering dispatcher. Channels are
// created here so a stopped enricher can be started again.
func (e *Enricher) Start(ctx context.Context) {
	if !e.started.CompareAndSwap(false, true) {
		return
	}
	e.ctx = ctx
	e.jobs = make(chan *enrichJob, e.workers*4)
	e.done = make(chan *enrichJob, e.workers*4)
	e.nextSeq.Store(0)
	e.queueDepth.Store(0)

	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.worker()
	}

	e.dispatchWG.Add(1)
	go e.dispatchLoop()

	slog.Info("Killmail enricher started", "workers", e.workers)
}

// Submit queues a killmail for enrichment, blocking when the pipeline is full
func (e *Enricher) Submit(km *killmodels.Killmail) {
	if !e.started.Load() {
		slog.Warn("Enricher not running, dropping killmail", "killmail_id", km.KillID)
		return
	}
	job := &enrichJob{
		seq:      e.nextSeq.Add(1) - 1,
		killmail: km,
	}
	e.queueDepth.Add(1)
	e.jobs <- job
}

// Stop drains the pipeline: no further Submit calls may happen once called.
func (e *Enricher) Stop() {
	if !e.started.CompareAndSwap(true, false) {
		return
	}
	close(e.jobs)
	e.workerWG.Wait()
	close(e.done)
	e.dispatchWG.Wait()
	slog.Info("Killmail enricher stopped")
}

// QueueDepth reports how many killmails are waiting in the pipeline
func (e *Enricher) QueueDepth() int {
	return int(e.queueDepth.Load())
}

func (e *Enricher) worker() {
	defer e.workerWG.Done()
	for job := range e.jobs {
		e.enrich(e.ctx, job.killmail)
		e.done <- job
	}
}

// dispatchLoop restores ingestion order: finished jobs are held until every
// earlier sequence number has been dispatched.
func (e *Enricher) dispatchLoop() {
	defer e.dispatchWG.Done()

	pending := make(map[uint64]*enrichJob)
	var next uint64

	for job := range e.done {
		pending[job.seq] = job
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			e.dispatch(e.ctx, ready.killmail)
			e.queueDepth.Add(-1)
		}
	}
}

func (e *Enricher) enrich(ctx context.Context, km *killmodels.Killmail) {
	km.ShipCategories = e.buildShipCategories(ctx, km)
	km.Pinpoints = e.pinpoints.Calculate(&km.Killmail)
}

// buildShipCategories classifies the victim ship and every distinct attacker
// ship type. A killmail without a victim ship type gets no classification
// block at all.
func (e *Enricher) buildShipCategories(ctx context.Context, km *killmodels.Killmail) *killmodels.ShipCategories {
	victimTypeID := km.Killmail.Victim.ShipTypeID
	if victimTypeID == 0 {
		return nil
	}

	victimCat := e.categories.ResolveForKillmail(ctx, victimTypeID, &km.Killmail)

	seen := make(map[int64]bool)
	var attackers []killmodels.AttackerShipCategory
	for _, attacker := range km.Killmail.Attackers {
		if attacker.ShipTypeID == nil || *attacker.ShipTypeID == 0 {
			continue
		}
		typeID := *attacker.ShipTypeID
		if seen[typeID] {
			continue
		}
		seen[typeID] = true

		cat := e.categories.ResolveForKillmail(ctx, typeID, &km.Killmail)
		attackers = append(attackers, killmodels.AttackerShipCategory{
			ShipTypeID: typeID,
			Category:   cat.Category,
			Name:       cat.Name,
			Tier:       cat.Tier,
		})
	}

	return &killmodels.ShipCategories{
		Victim: &killmodels.VictimShipCategory{
			Category: victimCat.Category,
			Name:     victimCat.Name,
			Tier:     victimCat.Tier,
		},
		Attackers: attackers,
	}
}
