package services

import (
	"context"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-gatewatch/internal/activity/models"
	"go-gatewatch/pkg/database"
	"go-gatewatch/pkg/sde"
)

// Repository persists expired sessions. Every expired session lands in the
// timeline collection; camps that held a camp-family classification
// additionally land in the expired-camps archive with their full snapshot.
type Repository struct {
	mongodb      *database.MongoDB
	expiredCamps *mongo.Collection
	sessions     *mongo.Collection
}

// NewRepository creates a new activity archive repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:      mongodb,
		expiredCamps: mongodb.Database.Collection(models.ExpiredCampsCollection),
		sessions:     mongodb.Database.Collection(models.SessionsCollection),
	}
}

// CreateIndexes creates the indexes the archive and history queries rely on
func (r *Repository) CreateIndexes(ctx context.Context) error {
	campIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "camp_unique_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "last_kill_time", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "system_id", Value: 1}},
		},
	}
	if _, err := r.expiredCamps.Indexes().CreateMany(ctx, campIndexes); err != nil {
		return err
	}

	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "start_time", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "classification", Value: 1},
				{Key: "start_time", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "start_region", Value: 1}},
		},
	}
	_, err := r.sessions.Indexes().CreateMany(ctx, sessionIndexes)
	return err
}

// SaveExpiredCamp archives one finished camp. Insert-only upsert keyed by
// the session id, so retrying a failed archive pass cannot duplicate rows.
func (r *Repository) SaveExpiredCamp(ctx context.Context, camp *models.ExpiredCamp) error {
	filter := bson.M{"camp_unique_id": camp.CampUniqueID}
	update := bson.M{"$setOnInsert": camp}
	_, err := r.expiredCamps.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// SaveSessionRecord writes one timeline row, insert-only keyed by session id.
func (r *Repository) SaveSessionRecord(ctx context.Context, record *models.SessionRecord) error {
	filter := bson.M{"session_id": record.SessionID}
	update := bson.M{"$setOnInsert": record}
	_, err := r.sessions.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetSessions returns archived sessions newest-first, optionally filtered by
// classification and region. A region filter matches sessions that started
// or ended there.
func (r *Repository) GetSessions(ctx context.Context, since time.Time, classification, region string, limit, offset int) ([]models.SessionRecord, error) {
	filter := bson.M{"start_time": bson.M{"$gte": since}}
	if classification != "" {
		filter["classification"] = classification
	}
	if region != "" {
		filter["$or"] = []bson.M{
			{"start_region": region},
			{"end_region": region},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.SessionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetSessionByID retrieves a single archived session, nil when unknown
func (r *Repository) GetSessionByID(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	err := r.sessions.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetSessionStats aggregates the archive into one summary row for the window
func (r *Repository) GetSessionStats(ctx context.Context, since time.Time) (*models.SessionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"start_time": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total_sessions": bson.M{"$sum": 1},
			"camps": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{"$classification", bson.A{models.ClassificationCamp, models.ClassificationSoloCamp}}}, 1, 0}}},
			"smartbombs": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$classification", models.ClassificationSmartbomb}}, 1, 0}}},
			"roams": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{"$classification", bson.A{models.ClassificationRoam, models.ClassificationSoloRoam}}}, 1, 0}}},
			"battles": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$classification", models.ClassificationBattle}}, 1, 0}}},
			"roaming_camps": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$classification", models.ClassificationRoamingCamp}}, 1, 0}}},
			"total_kills":  bson.M{"$sum": "$kill_count"},
			"total_value":  bson.M{"$sum": "$total_value"},
			"avg_duration": bson.M{"$avg": "$duration_minutes"},
			"regions":      bson.M{"$addToSet": "$start_region"},
		}}},
	}

	cursor, err := r.sessions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TotalSessions int64    `bson:"total_sessions"`
		Camps         int64    `bson:"camps"`
		Smartbombs    int64    `bson:"smartbombs"`
		Roams         int64    `bson:"roams"`
		Battles       int64    `bson:"battles"`
		RoamingCamps  int64    `bson:"roaming_camps"`
		TotalKills    int64    `bson:"total_kills"`
		TotalValue    float64  `bson:"total_value"`
		AvgDuration   float64  `bson:"avg_duration"`
		Regions       []string `bson:"regions"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &models.SessionStats{}, nil
	}

	row := rows[0]
	return &models.SessionStats{
		TotalSessions: row.TotalSessions,
		Camps:         row.Camps,
		Smartbombs:    row.Smartbombs,
		Roams:         row.Roams,
		Battles:       row.Battles,
		RoamingCamps:  row.RoamingCamps,
		TotalKills:    row.TotalKills,
		TotalValue:    row.TotalValue,
		AvgDuration:   math.Round(row.AvgDuration*10) / 10,
		RegionsActive: len(row.Regions),
	}, nil
}

type regionHistoryRow struct {
	ID struct {
		StartRegion    string `bson:"start_region"`
		EndRegion      string `bson:"end_region"`
		Classification string `bson:"classification"`
	} `bson:"_id"`
	Sessions int64   `bson:"sessions"`
	Kills    int64   `bson:"kills"`
	Value    float64 `bson:"value"`
}

// GetRegionHistory folds archived sessions into per-region totals. Older
// deployments only have the expired-camps collection, so when the timeline
// is empty the camp archive fills in.
func (r *Repository) GetRegionHistory(ctx context.Context, since time.Time) (map[string]models.RegionHistoryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"start_time": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"start_region":   "$start_region",
				"end_region":     "$end_region",
				"classification": "$classification",
			},
			"sessions": bson.M{"$sum": 1},
			"kills":    bson.M{"$sum": "$kill_count"},
			"value":    bson.M{"$sum": "$total_value"},
		}}},
	}

	cursor, err := r.sessions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []regionHistoryRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	history := make(map[string]models.RegionHistoryStats)
	for _, row := range rows {
		region := row.ID.EndRegion
		if region == "" {
			region = row.ID.StartRegion
		}
		if region == "" {
			region = "Unknown"
		}
		foldHistoryRow(history, region, row.ID.Classification, row.Sessions, row.Kills, row.Value)
	}
	if len(history) > 0 {
		return history, nil
	}
	return r.regionHistoryFromCamps(ctx, since)
}

func (r *Repository) regionHistoryFromCamps(ctx context.Context, since time.Time) (map[string]models.RegionHistoryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"last_kill_time": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"end_region":     "$details.lastSystem.region",
				"classification": "$details.classification",
			},
			"sessions": bson.M{"$sum": 1},
			"kills":    bson.M{"$sum": "$kill_count"},
			"value":    bson.M{"$sum": "$total_value"},
		}}},
	}

	cursor, err := r.expiredCamps.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []regionHistoryRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	history := make(map[string]models.RegionHistoryStats)
	for _, row := range rows {
		region := row.ID.EndRegion
		if region == "" {
			region = "Unknown"
		}
		foldHistoryRow(history, region, row.ID.Classification, row.Sessions, row.Kills, row.Value)
	}
	return history, nil
}

func foldHistoryRow(history map[string]models.RegionHistoryStats, region, classification string, sessions, kills int64, value float64) {
	entry, ok := history[region]
	if !ok {
		entry = models.RegionHistoryStats{ByType: make(map[string]int64)}
	}
	entry.Sessions += sessions
	entry.Kills += kills
	entry.Value += value
	if classification != "" {
		entry.ByType[classification] += sessions
	}
	history[region] = entry
}

// CountSessions returns the number of archived timeline rows
func (r *Repository) CountSessions(ctx context.Context) (int64, error) {
	return r.sessions.CountDocuments(ctx, bson.M{})
}

// CountExpiredCamps returns the number of archived camps
func (r *Repository) CountExpiredCamps(ctx context.Context) (int64, error) {
	return r.expiredCamps.CountDocuments(ctx, bson.M{})
}

// buildExpiredCamp shapes a finished camp for the archive. The end time is
// the last kill plus the idle timeout the session sat through.
func buildExpiredCamp(s *models.Session, timeout time.Duration, now time.Time) *models.ExpiredCamp {
	end := s.LastKillTime
	if end.IsZero() {
		end = lastEventTime(s, now)
	}
	return &models.ExpiredCamp{
		CampUniqueID:   s.ID,
		SystemID:       s.SystemID,
		StargateName:   s.StargateName,
		MaxProbability: s.MaxProbability,
		FirstKillTime:  s.FirstKillTime,
		LastKillTime:   s.LastKillTime,
		EndTime:        end.Add(timeout),
		TotalValue:     s.TotalValue,
		Type:           s.Type,
		KillCount:      len(s.Kills),
		Details:        s.Snapshot(),
		CreatedAt:      now,
	}
}

// buildSessionRecord flattens a finished session into its timeline row.
func buildSessionRecord(s *models.Session, timeout time.Duration, now time.Time) *models.SessionRecord {
	start := s.StartTime
	if start.IsZero() {
		start = s.FirstKillTime
	}
	end := s.LastKillTime
	if end.IsZero() {
		end = lastEventTime(s, now)
	}
	duration := end.Sub(start).Minutes()
	if duration < 0 {
		duration = 0
	}

	startRef := s.LastSystem
	endRef := s.LastSystem
	if len(s.Path) > 0 {
		first := s.Path[0]
		startRef = models.SystemRef{ID: first.ID, Name: first.Name, Region: first.Region}
		last := s.Path[len(s.Path)-1]
		endRef = models.SystemRef{ID: last.ID, Name: last.Name, Region: last.Region}
	}

	path := make([]models.PathEntry, len(s.Path))
	copy(path, s.Path)

	// Attacker ship names and categories come from the enriched kills; the
	// counts come from the session metrics so both stay in step.
	shipNames := make(map[int64]models.ShipCompEntry)
	for _, km := range s.Kills {
		if km.ShipCategories == nil {
			continue
		}
		for _, a := range km.ShipCategories.Attackers {
			if _, ok := shipNames[a.ShipTypeID]; !ok {
				shipNames[a.ShipTypeID] = models.ShipCompEntry{Name: a.Name, Category: a.Category}
			}
		}
	}
	shipComposition := make(map[string]models.ShipCompEntry, len(s.Metrics.ShipCounts))
	for shipID, count := range s.Metrics.ShipCounts {
		entry, ok := shipNames[shipID]
		if !ok {
			entry = models.ShipCompEntry{Name: "Unknown", Category: sde.CategoryUnknown}
		}
		entry.Count = count
		shipComposition[strconv.FormatInt(shipID, 10)] = entry
	}

	victimTypes := make(map[string]models.ShipCompEntry)
	for _, km := range s.Kills {
		key := strconv.FormatInt(km.Killmail.Victim.ShipTypeID, 10)
		entry, ok := victimTypes[key]
		if !ok {
			entry = models.ShipCompEntry{Name: "Unknown", Category: sde.CategoryUnknown}
			if km.ShipCategories != nil && km.ShipCategories.Victim != nil {
				entry.Name = km.ShipCategories.Victim.Name
				entry.Category = km.ShipCategories.Victim.Category
			}
		}
		entry.Count++
		victimTypes[key] = entry
	}

	killIDs := make([]int64, 0, len(s.Kills))
	for _, km := range s.Kills {
		killIDs = append(killIDs, km.KillID)
	}

	members := s.Members.Values()
	corps := append([]int64(nil), s.Composition.InvolvedCorporations...)
	alliances := append([]int64(nil), s.Composition.InvolvedAlliances...)

	return &models.SessionRecord{
		SessionID:      s.ID,
		Classification: s.Classification,
		Confidence:     float64(s.Probability) / 100,

		StartSystemID:   startRef.ID,
		StartSystemName: startRef.Name,
		StartRegion:     startRef.Region,
		EndSystemID:     endRef.ID,
		EndSystemName:   endRef.Name,
		EndRegion:       endRef.Region,
		SystemsVisited:  s.VisitedSystems.Len(),
		SystemPath:      path,

		StartTime:       start,
		EndTime:         end.Add(timeout),
		DurationMinutes: math.Round(duration*10) / 10,
		DayOfWeek:       (int(start.Weekday()) + 6) % 7,
		HourOfDay:       start.Hour(),

		KillCount:       len(s.Kills),
		PodKills:        s.Metrics.PodKills,
		TotalValue:      s.TotalValue,
		AvgValuePerKill: s.Metrics.AvgValuePerKill,
		MaxProbability:  s.MaxProbability,

		MemberIDs:     members,
		MemberCount:   len(members),
		CorpIDs:       corps,
		CorpCount:     len(corps),
		AllianceIDs:   alliances,
		AllianceCount: len(alliances),

		ShipComposition: shipComposition,
		VictimTypes:     victimTypes,

		StargateName: s.StargateName,
		KillIDs:      killIDs,

		CreatedAt: now,
	}
}
