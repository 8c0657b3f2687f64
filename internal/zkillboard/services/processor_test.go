package services

import (
	"testing"

	"go-gatewatch/internal/zkillboard/dto"
	"go-gatewatch/pkg/evegateway/killmails"
)

func TestConvertZKB(t *testing.T) {
	in := dto.ZKBData{
		LocationID:     50001248,
		Hash:           "abc123",
		FittedValue:    1_000,
		DroppedValue:   2_000,
		DestroyedValue: 3_000,
		TotalValue:     5_000,
		Points:         12,
		NPC:            true,
		Solo:           true,
		Awox:           true,
		Labels:         []string{"loc:lowsec", "solo"},
		Href:           "https://esi.evetech.net/v1/killmails/1/abc123/",
	}

	out := convertZKB(in)

	if out.LocationID != in.LocationID || out.Hash != in.Hash {
		t.Errorf("identity fields lost: %+v", out)
	}
	if out.FittedValue != 1_000 || out.DroppedValue != 2_000 || out.DestroyedValue != 3_000 || out.TotalValue != 5_000 {
		t.Errorf("value fields lost: %+v", out)
	}
	if out.Points != 12 || !out.NPC || !out.Solo || !out.Awox {
		t.Errorf("flag fields lost: %+v", out)
	}
	if len(out.Labels) != 2 || out.Labels[0] != "loc:lowsec" {
		t.Errorf("labels lost: %v", out.Labels)
	}
	if out.Href != in.Href {
		t.Errorf("href lost: %q", out.Href)
	}
}

func TestConvertESIKillmail(t *testing.T) {
	resp := &killmails.KillmailResponse{
		KillmailID:    123,
		SolarSystemID: 30000142,
		Victim: killmails.Victim{
			CharacterID: i64(90_000_001),
			ShipTypeID:  587,
			DamageTaken: 4242,
			Position:    &killmails.Position{X: 1, Y: 2, Z: 3},
			Items: []killmails.Item{
				{
					ItemTypeID: 3993,
					Flag:       27,
					Items:      []killmails.Item{{ItemTypeID: 34, QuantityDropped: i64(100)}},
				},
			},
		},
		Attackers: []killmails.Attacker{
			{CharacterID: i64(91_000_000), ShipTypeID: i64(22456), WeaponTypeID: i64(3993), FinalBlow: true, DamageDone: 4242},
		},
	}

	esi := convertESIKillmail(resp)

	if esi.KillmailID != 123 || esi.SolarSystemID != 30000142 {
		t.Errorf("identity fields lost: %+v", esi)
	}
	if esi.Victim.Position == nil || esi.Victim.Position.Z != 3 {
		t.Errorf("position lost: %+v", esi.Victim.Position)
	}
	if len(esi.Victim.Items) != 1 || len(esi.Victim.Items[0].Items) != 1 {
		t.Fatalf("nested items lost: %+v", esi.Victim.Items)
	}
	if got := esi.Victim.Items[0].Items[0]; got.QuantityDropped == nil || *got.QuantityDropped != 100 {
		t.Errorf("nested item quantities lost: %+v", got)
	}
	if len(esi.Attackers) != 1 {
		t.Fatalf("attackers lost: %+v", esi.Attackers)
	}
	a := esi.Attackers[0]
	if a.WeaponTypeID == nil || *a.WeaponTypeID != 3993 || !a.FinalBlow {
		t.Errorf("attacker fields lost: %+v", a)
	}
}

func TestConvertESIItemsNil(t *testing.T) {
	if got := convertESIItems(nil); got != nil {
		t.Errorf("nil items should stay nil, got %v", got)
	}
}
