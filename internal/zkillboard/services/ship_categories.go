package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	killmodels "go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/sde"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	shipCategoryKeyPrefix = "zkb:ship_category:"
	shipCategoryCacheTTL  = 24 * time.Hour
)

// ShipCategoryResolver resolves ship classifications through a three-layer
// cache: in-process map, Redis, then the Mongo ship_types collection, with
// the SDE classifier as the source of truth on a full miss.
//
// Only the context-free classification is cached. The NPC heuristic depends
// on the killmail a type appears in, so it is applied per kill on top of the
// cached result and never stored.
type ShipCategoryResolver struct {
	sdeService sde.SDEService
	redis      *database.Redis
	collection *mongo.Collection

	mu    sync.RWMutex
	cache map[int64]*sde.ShipCategory
}

// NewShipCategoryResolver creates a new ship category resolver
func NewShipCategoryResolver(sdeService sde.SDEService, mongodb *database.MongoDB, redis *database.Redis) *ShipCategoryResolver {
	return &ShipCategoryResolver{
		sdeService: sdeService,
		redis:      redis,
		collection: mongodb.Database.Collection(killmodels.ShipTypesCollection),
		cache:      make(map[int64]*sde.ShipCategory),
	}
}

// Resolve returns the context-free classification for a ship type. Cache
// layer failures degrade to the next layer; the SDE classifier always
// produces a result, so Resolve never returns nil.
func (r *ShipCategoryResolver) Resolve(ctx context.Context, typeID int64) *sde.ShipCategory {
	r.mu.RLock()
	if cached, ok := r.cache[typeID]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	if cached := r.fromRedis(ctx, typeID); cached != nil {
		r.remember(typeID, cached)
		return cached
	}

	if cached := r.fromMongo(ctx, typeID); cached != nil {
		r.remember(typeID, cached)
		r.toRedis(ctx, typeID, cached)
		return cached
	}

	category := r.sdeService.ClassifyShip(typeID)
	r.remember(typeID, category)
	r.toRedis(ctx, typeID, category)
	r.toMongo(ctx, typeID, category)
	return category
}

// ResolveForKillmail classifies a ship type in the context of one killmail.
// CONCORD and capsules keep their fixed categories; everything else runs the
// NPC heuristic, which replaces the category (tier resets to T1 because NPC
// hulls have no meaningful tech tier).
func (r *ShipCategoryResolver) ResolveForKillmail(ctx context.Context, typeID int64, km *killmodels.ESIKillmail) *sde.ShipCategory {
	category := r.Resolve(ctx, typeID)
	if category.Category == sde.CategoryConcord || category.Category == sde.CategoryCapsule {
		return category
	}

	if km != nil && isNPCShip(typeID, km) {
		return &sde.ShipCategory{
			Category: sde.CategoryNPC,
			Name:     category.Name,
			Tier:     "T1",
		}
	}
	return category
}

func (r *ShipCategoryResolver) remember(typeID int64, category *sde.ShipCategory) {
	r.mu.Lock()
	r.cache[typeID] = category
	r.mu.Unlock()
}

// CachedCount returns the number of classifications held in process memory
func (r *ShipCategoryResolver) CachedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *ShipCategoryResolver) fromRedis(ctx context.Context, typeID int64) *sde.ShipCategory {
	var category sde.ShipCategory
	if err := r.redis.GetJSON(ctx, fmt.Sprintf("%s%d", shipCategoryKeyPrefix, typeID), &category); err != nil {
		return nil
	}
	return &category
}

func (r *ShipCategoryResolver) toRedis(ctx context.Context, typeID int64, category *sde.ShipCategory) {
	if err := r.redis.SetJSON(ctx, fmt.Sprintf("%s%d", shipCategoryKeyPrefix, typeID), category, shipCategoryCacheTTL); err != nil {
		slog.DebugContext(ctx, "Failed to cache ship category in Redis", "type_id", typeID, "error", err)
	}
}

func (r *ShipCategoryResolver) fromMongo(ctx context.Context, typeID int64) *sde.ShipCategory {
	var cached killmodels.ShipTypeCache
	err := r.collection.FindOne(ctx, bson.M{"type_id": typeID}).Decode(&cached)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			slog.DebugContext(ctx, "Ship type cache lookup failed", "type_id", typeID, "error", err)
		}
		return nil
	}
	return &sde.ShipCategory{
		Category: cached.Category,
		Name:     cached.Name,
		Tier:     cached.Tier,
	}
}

func (r *ShipCategoryResolver) toMongo(ctx context.Context, typeID int64, category *sde.ShipCategory) {
	update := bson.M{
		"$set": bson.M{
			"category":   category.Category,
			"name":       category.Name,
			"tier":       category.Tier,
			"updated_at": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"type_id": typeID,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"type_id": typeID}, update, opts); err != nil {
		slog.DebugContext(ctx, "Failed to persist ship category", "type_id", typeID, "error", err)
	}
}

// CreateIndexes creates the ship_types collection indexes
func (r *ShipCategoryResolver) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "type_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// isNPCShip decides whether a ship type belongs to an NPC within one killmail.
// EVE NPC corporations live below ID 2,000,000 and player characters above
// 3,999,999; a hull flown without a character behind it is an NPC.
func isNPCShip(typeID int64, km *killmodels.ESIKillmail) bool {
	victim := km.Victim
	if victim.ShipTypeID == typeID {
		corpID := int64(0)
		if victim.CorporationID != nil {
			corpID = *victim.CorporationID
		}
		if victim.CharacterID == nil && corpID > 1 && corpID < 2_000_000 {
			return true
		}
		if victim.CharacterID != nil && *victim.CharacterID > 3_999_999 {
			return false
		}
		if corpID > 1_999_999 {
			return false
		}
	}

	for _, attacker := range km.Attackers {
		if attacker.ShipTypeID == nil || *attacker.ShipTypeID != typeID {
			continue
		}
		if attacker.CharacterID != nil && *attacker.CharacterID > 3_999_999 {
			return false
		}
		if attacker.CorporationID != nil && *attacker.CorporationID > 1_999_999 {
			return false
		}
		if attacker.CharacterID == nil {
			return true
		}
	}

	return true
}
