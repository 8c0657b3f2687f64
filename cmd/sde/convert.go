package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"go-gatewatch/pkg/sde"
)

// forEachRow streams a CSV dump row by row, exposing columns by header name.
func forEachRow(path string, fn func(get func(column string) string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	var record []string
	get := func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	for {
		record, err = reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := fn(get); err != nil {
			return err
		}
	}
}

// parseID parses an integer id column. The dumps use "None" for NULL.
func parseID(value string) int64 {
	if value == "" || value == "None" {
		return 0
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// parseFloat parses a float column, reporting whether a value was present.
func parseFloat(value string) (float64, bool) {
	if value == "" || value == "None" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func writeJSON(dataDir, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	destFile := filepath.Join(dataDir, name)
	if err := os.WriteFile(destFile, payload, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", destFile, err)
	}
	slog.Info("Wrote SDE data file", "file", destFile)
	return nil
}

func convertSolarSystems(tmpDir, dataDir string) error {
	systems := make(map[string]*sde.SolarSystem)
	err := forEachRow(filepath.Join(tmpDir, "mapSolarSystems.csv"), func(get func(string) string) error {
		id := parseID(get("solarSystemID"))
		if id == 0 {
			return nil
		}
		security, _ := parseFloat(get("security"))
		systems[strconv.FormatInt(id, 10)] = &sde.SolarSystem{
			SystemID: id,
			Name:     get("solarSystemName"),
			RegionID: parseID(get("regionID")),
			Security: security,
		}
		return nil
	})
	if err != nil {
		return err
	}
	return writeJSON(dataDir, "solar_systems.json", systems)
}

func convertRegions(tmpDir, dataDir string) error {
	regions := make(map[string]*sde.Region)
	err := forEachRow(filepath.Join(tmpDir, "mapRegions.csv"), func(get func(string) string) error {
		id := parseID(get("regionID"))
		if id == 0 {
			return nil
		}
		regions[strconv.FormatInt(id, 10)] = &sde.Region{
			RegionID: id,
			Name:     get("regionName"),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return writeJSON(dataDir, "regions.json", regions)
}

// convertCelestials groups every named, positioned item in mapDenormalize by
// solar system. Stars, planets, moons, belts, gates and stations all count;
// the pinpoint math measures kill positions against them.
func convertCelestials(tmpDir, dataDir string) error {
	celestials := make(map[string][]*sde.Celestial)
	err := forEachRow(filepath.Join(tmpDir, "mapDenormalize.csv"), func(get func(string) string) error {
		systemID := parseID(get("solarSystemID"))
		itemID := parseID(get("itemID"))
		// The system row carries its galaxy position, not an in-system one
		if systemID == 0 || itemID == 0 || itemID == systemID {
			return nil
		}
		x, okX := parseFloat(get("x"))
		y, okY := parseFloat(get("y"))
		z, okZ := parseFloat(get("z"))
		if !okX || !okY || !okZ {
			return nil
		}
		name := get("itemName")
		if name == "" || name == "None" {
			return nil
		}
		key := strconv.FormatInt(systemID, 10)
		celestials[key] = append(celestials[key], &sde.Celestial{
			ItemID: itemID,
			Name:   name,
			TypeID: parseID(get("typeID")),
			X:      x,
			Y:      y,
			Z:      z,
		})
		return nil
	})
	if err != nil {
		return err
	}
	return writeJSON(dataDir, "celestials.json", celestials)
}

func convertShipTypes(tmpDir, dataDir string) error {
	shipTypes := make(map[string]*sde.ShipType)
	err := forEachRow(filepath.Join(tmpDir, "invTypes.csv"), func(get func(string) string) error {
		id := parseID(get("typeID"))
		if id == 0 {
			return nil
		}
		shipTypes[strconv.FormatInt(id, 10)] = &sde.ShipType{
			TypeID:        id,
			Name:          get("typeName"),
			GroupID:       parseID(get("groupID")),
			MarketGroupID: parseID(get("marketGroupID")),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return writeJSON(dataDir, "ship_types.json", shipTypes)
}

func convertMarketGroups(tmpDir, dataDir string) error {
	marketGroups := make(map[string]*sde.MarketGroup)
	err := forEachRow(filepath.Join(tmpDir, "invMarketGroups.csv"), func(get func(string) string) error {
		id := parseID(get("marketGroupID"))
		if id == 0 {
			return nil
		}
		var parent *int64
		if p := parseID(get("parentGroupID")); p != 0 {
			parent = &p
		}
		marketGroups[strconv.FormatInt(id, 10)] = &sde.MarketGroup{
			MarketGroupID: id,
			ParentGroupID: parent,
			Name:          get("marketGroupName"),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return writeJSON(dataDir, "market_groups.json", marketGroups)
}
