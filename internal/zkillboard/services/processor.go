package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	killmodels "go-gatewatch/internal/killmails/models"
	killservices "go-gatewatch/internal/killmails/services"
	"go-gatewatch/internal/zkillboard/dto"
	"go-gatewatch/pkg/evegateway"
	"go-gatewatch/pkg/evegateway/killmails"
	"go-gatewatch/pkg/sde"
)

// ActivitySink receives fully enriched killmails in ingestion order. The
// activity engine implements it; a nil sink turns the pipeline into a plain
// archiver.
type ActivitySink interface {
	ProcessKillmail(ctx context.Context, km *killmodels.Killmail) error
}

// ProcessorMetrics tracks the enrichment pipeline counters
type ProcessorMetrics struct {
	Enriched       atomic.Int64
	Duplicates     atomic.Int64
	DroppedInvalid atomic.Int64
	DroppedOld     atomic.Int64
	ESIFallbacks   atomic.Int64
	StoreErrors    atomic.Int64
}

// KillmailProcessor turns raw RedisQ packages into enriched killmails. It
// validates and deduplicates on the consumer goroutine, fetches missing
// bodies from ESI, then hands kills to the enricher pool; enriched kills come
// back in ingestion order and are dispatched to the activity engine, the
// batched Mongo store and the Redis recent-kills ring.
type KillmailProcessor struct {
	repository *Repository
	killStore  *killservices.Service
	eveGateway *evegateway.Client
	sdeService sde.SDEService
	sink       ActivitySink
	enricher   *Enricher

	maxKillAge time.Duration
	batchSize  int

	batchMu sync.Mutex
	batch   []killmodels.Killmail

	metrics ProcessorMetrics
}

// ProcessorConfig bundles the tunables for the enrichment pipeline
type ProcessorConfig struct {
	EnrichWorkers int
	BatchSize     int
	MaxKillAge    time.Duration
}

// NewKillmailProcessor creates the processor and its enricher pool
func NewKillmailProcessor(
	repository *Repository,
	killStore *killservices.Service,
	eveGateway *evegateway.Client,
	sdeService sde.SDEService,
	categories *ShipCategoryResolver,
	pinpoints *PinpointCalculator,
	sink ActivitySink,
	cfg ProcessorConfig,
) *KillmailProcessor {
	if cfg.EnrichWorkers < 1 {
		cfg.EnrichWorkers = 8
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 10
	}
	if cfg.MaxKillAge <= 0 {
		cfg.MaxKillAge = 6 * time.Hour
	}

	p := &KillmailProcessor{
		repository: repository,
		killStore:  killStore,
		eveGateway: eveGateway,
		sdeService: sdeService,
		sink:       sink,
		maxKillAge: cfg.MaxKillAge,
		batchSize:  cfg.BatchSize,
		batch:      make([]killmodels.Killmail, 0, cfg.BatchSize),
	}
	p.enricher = NewEnricher(categories, pinpoints, cfg.EnrichWorkers, p.dispatchEnriched)
	return p
}

// Start launches the enricher pool
func (p *KillmailProcessor) Start(ctx context.Context) {
	p.enricher.Start(ctx)
}

// Stop drains the enricher pool; pending kills are dispatched before return
func (p *KillmailProcessor) Stop() {
	p.enricher.Stop()
}

// Metrics returns the pipeline counters
func (p *KillmailProcessor) Metrics() *ProcessorMetrics {
	return &p.metrics
}

// EnrichQueueDepth reports how many kills are waiting in the enricher
func (p *KillmailProcessor) EnrichQueueDepth() int {
	return p.enricher.QueueDepth()
}

// BatchSize returns the configured store batch size
func (p *KillmailProcessor) BatchSize() int {
	return p.batchSize
}

// EnrichWorkers returns the enricher pool size
func (p *KillmailProcessor) EnrichWorkers() int {
	return p.enricher.workers
}

// MaxKillAge returns the freshness gate
func (p *KillmailProcessor) MaxKillAge() time.Duration {
	return p.maxKillAge
}

// ProcessKillmail runs the ingest gates for one RedisQ package and submits
// the kill for enrichment. Malformed packages are dropped with a warning;
// only transient infrastructure failures surface as errors.
func (p *KillmailProcessor) ProcessKillmail(ctx context.Context, pkg *dto.RedisQPackage) error {
	if pkg == nil || pkg.KillID == 0 {
		p.metrics.DroppedInvalid.Add(1)
		slog.WarnContext(ctx, "Dropping RedisQ package without kill ID")
		return nil
	}

	// Fast dedupe before any expensive work
	if seen, err := p.repository.WasSeen(ctx, pkg.KillID); err == nil && seen {
		p.metrics.Duplicates.Add(1)
		return nil
	}
	if exists, err := p.killStore.Exists(ctx, pkg.KillID); err == nil && exists {
		p.metrics.Duplicates.Add(1)
		return nil
	}

	esi, err := p.killmailBody(ctx, pkg)
	if err != nil {
		return err
	}
	if esi == nil {
		return nil
	}

	if esi.KillmailTime.IsZero() || esi.SolarSystemID == 0 || esi.Victim.ShipTypeID == 0 || len(esi.Attackers) == 0 {
		p.metrics.DroppedInvalid.Add(1)
		slog.WarnContext(ctx, "Dropping killmail with missing required fields", "killmail_id", pkg.KillID)
		return nil
	}

	if age := time.Since(esi.KillmailTime); age > p.maxKillAge {
		p.metrics.DroppedOld.Add(1)
		slog.DebugContext(ctx, "Dropping stale killmail",
			"killmail_id", pkg.KillID,
			"age_hours", fmt.Sprintf("%.1f", age.Hours()))
		return nil
	}

	// Claim the kill; a lost race means another run already has it
	if marked, err := p.repository.MarkSeen(ctx, pkg.KillID); err != nil {
		slog.DebugContext(ctx, "Failed to mark killmail as seen", "killmail_id", pkg.KillID, "error", err)
	} else if !marked {
		p.metrics.Duplicates.Add(1)
		return nil
	}

	km := &killmodels.Killmail{
		KillID:     pkg.KillID,
		ZKB:        convertZKB(pkg.ZKB),
		Killmail:   *esi,
		IngestedAt: time.Now().UTC(),
	}

	p.enricher.Submit(km)
	return nil
}

// killmailBody resolves the ESI killmail body: from the RedisQ package when
// present, otherwise fetched from ESI via the zkb hash. A nil result with a
// nil error means the package was dropped.
func (p *KillmailProcessor) killmailBody(ctx context.Context, pkg *dto.RedisQPackage) (*killmodels.ESIKillmail, error) {
	raw := bytes.TrimSpace(pkg.Killmail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if pkg.ZKB.Hash == "" {
			p.metrics.DroppedInvalid.Add(1)
			slog.WarnContext(ctx, "RedisQ package has neither killmail body nor hash", "killmail_id", pkg.KillID)
			return nil, nil
		}

		resp, err := p.eveGateway.Killmails.GetKillmail(ctx, pkg.KillID, pkg.ZKB.Hash)
		if err != nil {
			return nil, fmt.Errorf("ESI killmail fetch failed for %d: %w", pkg.KillID, err)
		}
		p.metrics.ESIFallbacks.Add(1)
		return convertESIKillmail(resp), nil
	}

	var esi killmodels.ESIKillmail
	if err := json.Unmarshal(raw, &esi); err != nil {
		p.metrics.DroppedInvalid.Add(1)
		slog.WarnContext(ctx, "Dropping killmail with malformed body", "killmail_id", pkg.KillID, "error", err)
		return nil, nil
	}
	return &esi, nil
}

// dispatchEnriched handles one enriched killmail in ingestion order: activity
// engine first, then the batched archive and the recent-kills ring.
func (p *KillmailProcessor) dispatchEnriched(ctx context.Context, km *killmodels.Killmail) {
	p.metrics.Enriched.Add(1)

	if p.sink != nil {
		if err := p.sink.ProcessKillmail(ctx, km); err != nil {
			slog.WarnContext(ctx, "Activity engine rejected killmail", "killmail_id", km.KillID, "error", err)
		}
	}

	p.appendBatch(ctx, km)

	if err := p.repository.CacheRecentKill(ctx, p.summarize(km)); err != nil {
		slog.DebugContext(ctx, "Failed to cache recent kill", "killmail_id", km.KillID, "error", err)
	}
}

func (p *KillmailProcessor) appendBatch(ctx context.Context, km *killmodels.Killmail) {
	p.batchMu.Lock()
	p.batch = append(p.batch, *km)
	var full []killmodels.Killmail
	if len(p.batch) >= p.batchSize {
		full = p.batch
		p.batch = make([]killmodels.Killmail, 0, p.batchSize)
	}
	p.batchMu.Unlock()

	if full != nil {
		p.storeBatch(ctx, full)
	}
}

// Flush persists any batched killmails immediately
func (p *KillmailProcessor) Flush(ctx context.Context) error {
	p.batchMu.Lock()
	pending := p.batch
	p.batch = make([]killmodels.Killmail, 0, p.batchSize)
	p.batchMu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := p.killStore.StoreBatch(ctx, pending); err != nil {
		p.metrics.StoreErrors.Add(1)
		return err
	}
	return nil
}

func (p *KillmailProcessor) storeBatch(ctx context.Context, batch []killmodels.Killmail) {
	if err := p.killStore.StoreBatch(ctx, batch); err != nil {
		p.metrics.StoreErrors.Add(1)
		slog.ErrorContext(ctx, "Failed to store killmail batch", "count", len(batch), "error", err)
	}
}

func (p *KillmailProcessor) summarize(km *killmodels.Killmail) *dto.KillmailSummary {
	summary := &dto.KillmailSummary{
		KillmailID:    km.KillID,
		Timestamp:     km.Time(),
		SolarSystemID: km.SystemID(),
		SystemName:    p.sdeService.SystemName(km.SystemID()),
		RegionName:    p.sdeService.RegionNameForSystem(km.SystemID()),
		ShipTypeID:    km.Killmail.Victim.ShipTypeID,
		TotalValue:    km.ZKB.TotalValue,
		Points:        km.ZKB.Points,
		Solo:          km.ZKB.Solo,
		NPC:           km.ZKB.NPC,
		Href:          km.ZKB.Href,
	}
	if km.ShipCategories != nil && km.ShipCategories.Victim != nil {
		summary.ShipCategory = km.ShipCategories.Victim.Category
	}
	return summary
}

func convertZKB(zkb dto.ZKBData) killmodels.ZKBData {
	return killmodels.ZKBData{
		LocationID:     zkb.LocationID,
		Hash:           zkb.Hash,
		FittedValue:    zkb.FittedValue,
		DroppedValue:   zkb.DroppedValue,
		DestroyedValue: zkb.DestroyedValue,
		TotalValue:     zkb.TotalValue,
		Points:         zkb.Points,
		NPC:            zkb.NPC,
		Solo:           zkb.Solo,
		Awox:           zkb.Awox,
		Labels:         zkb.Labels,
		Href:           zkb.Href,
	}
}

// convertESIKillmail maps the ESI client response onto the killmail model
func convertESIKillmail(resp *killmails.KillmailResponse) *killmodels.ESIKillmail {
	esi := &killmodels.ESIKillmail{
		KillmailID:    resp.KillmailID,
		KillmailTime:  resp.KillmailTime,
		SolarSystemID: resp.SolarSystemID,
		MoonID:        resp.MoonID,
		WarID:         resp.WarID,
		Victim: killmodels.Victim{
			CharacterID:   resp.Victim.CharacterID,
			CorporationID: resp.Victim.CorporationID,
			AllianceID:    resp.Victim.AllianceID,
			FactionID:     resp.Victim.FactionID,
			ShipTypeID:    resp.Victim.ShipTypeID,
			DamageTaken:   resp.Victim.DamageTaken,
			Items:         convertESIItems(resp.Victim.Items),
		},
	}

	if resp.Victim.Position != nil {
		esi.Victim.Position = &killmodels.Position{
			X: resp.Victim.Position.X,
			Y: resp.Victim.Position.Y,
			Z: resp.Victim.Position.Z,
		}
	}

	esi.Attackers = make([]killmodels.Attacker, len(resp.Attackers))
	for i, attacker := range resp.Attackers {
		esi.Attackers[i] = killmodels.Attacker{
			CharacterID:    attacker.CharacterID,
			CorporationID:  attacker.CorporationID,
			AllianceID:     attacker.AllianceID,
			FactionID:      attacker.FactionID,
			ShipTypeID:     attacker.ShipTypeID,
			WeaponTypeID:   attacker.WeaponTypeID,
			DamageDone:     attacker.DamageDone,
			FinalBlow:      attacker.FinalBlow,
			SecurityStatus: attacker.SecurityStatus,
		}
	}

	return esi
}

func convertESIItems(items []killmails.Item) []killmodels.Item {
	if items == nil {
		return nil
	}
	converted := make([]killmodels.Item, len(items))
	for i, item := range items {
		converted[i] = killmodels.Item{
			ItemTypeID:        item.ItemTypeID,
			Flag:              item.Flag,
			Singleton:         item.Singleton,
			QuantityDestroyed: item.QuantityDestroyed,
			QuantityDropped:   item.QuantityDropped,
			Items:             convertESIItems(item.Items),
		}
	}
	return converted
}
