package services

import (
	"testing"

	killmodels "go-gatewatch/internal/killmails/models"
)

func i64(v int64) *int64 { return &v }

func TestIsNPCShip(t *testing.T) {
	tests := []struct {
		name   string
		typeID int64
		km     *killmodels.ESIKillmail
		want   bool
	}{
		{
			name:   "victim in npc corp without character",
			typeID: 588,
			km: &killmodels.ESIKillmail{
				Victim: killmodels.Victim{ShipTypeID: 588, CorporationID: i64(1_000_125)},
			},
			want: true,
		},
		{
			name:   "victim is a player",
			typeID: 587,
			km: &killmodels.ESIKillmail{
				Victim: killmodels.Victim{ShipTypeID: 587, CharacterID: i64(90_000_001), CorporationID: i64(98_000_001)},
			},
			want: false,
		},
		{
			name:   "victim owned by player corp without pilot",
			typeID: 587,
			km: &killmodels.ESIKillmail{
				Victim: killmodels.Victim{ShipTypeID: 587, CorporationID: i64(98_000_001)},
			},
			want: false,
		},
		{
			name:   "attacker is a player",
			typeID: 24700,
			km: &killmodels.ESIKillmail{
				Victim: killmodels.Victim{ShipTypeID: 587, CharacterID: i64(90_000_001)},
				Attackers: []killmodels.Attacker{
					{ShipTypeID: i64(24700), CharacterID: i64(91_000_000), CorporationID: i64(98_000_002)},
				},
			},
			want: false,
		},
		{
			name:   "attacker rat without character",
			typeID: 23061,
			km: &killmodels.ESIKillmail{
				Victim: killmodels.Victim{ShipTypeID: 587, CharacterID: i64(90_000_001)},
				Attackers: []killmodels.Attacker{
					{ShipTypeID: i64(23061), CorporationID: i64(1_000_125)},
				},
			},
			want: true,
		},
		{
			name:   "attacker in player corp without character is a structure",
			typeID: 35832,
			km: &killmodels.ESIKillmail{
				Victim: killmodels.Victim{ShipTypeID: 587, CharacterID: i64(90_000_001)},
				Attackers: []killmodels.Attacker{
					{ShipTypeID: i64(35832), CorporationID: i64(98_000_002)},
				},
			},
			want: false,
		},
		{
			name:   "type absent from the killmail defaults to npc",
			typeID: 99999,
			km: &killmodels.ESIKillmail{
				Victim: killmodels.Victim{ShipTypeID: 587, CharacterID: i64(90_000_001)},
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNPCShip(tt.typeID, tt.km); got != tt.want {
				t.Errorf("isNPCShip(%d) = %v, want %v", tt.typeID, got, tt.want)
			}
		})
	}
}
