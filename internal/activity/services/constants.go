package services

// Ship type ids with special handling in grouping and scoring.
const (
	CapsuleShipTypeID = 670
	MTUShipTypeID     = 35834
)

// Probability factor constants. The weights were tuned against observed
// lowsec camp traffic; treat them as data, not as derivable numbers.
const (
	threatScoreCap       = 0.50
	smartbombBaseBonus   = 0.16
	smartbombShipBonus   = 0.30
	smartbombSoloBonus   = 0.15
	vulnerableSingle     = 0.20
	vulnerableMultiple   = 0.40
	consistencyBonus     = 0.15
	maxConsistencyBonus  = 0.30
	widelySpacedBonus    = 0.15
	maxWidelySpacedBonus = 0.45
	podBonusPerKill      = 0.03
	maxPodBonus          = 0.15
	burstPenalty         = 0.20
	overallProbCap       = 0.95
	minProbThreshold     = 5 // percent, below this a session reports 0

	battleParticipantThreshold = 40

	burstWindowMs        = 120_000
	youngSessionMinutes  = 15
	widelySpacedGapMs    = 300_000
	minConsistencyPilots = 2
)

// threatShips maps ship type id to its camp-probability weight. Dictors and
// heavy dictors dominate; the long tail covers hulls that show up in camp
// compositions often enough to matter.
var threatShips = map[int64]float64{
	3756:  0.20, // Gnosis
	11202: 0.03, // Ares
	11196: 0.11, // Stiletto
	11176: 0.04, // Crow
	11184: 0.03, // Crusader
	11186: 0.08, // Malediction
	11200: 0.03, // Taranis
	11178: 0.04, // Raptor
	29988: 0.35, // Proteus
	20125: 0.20, // Curse
	17722: 0.25, // Vigilant
	22456: 0.50, // Sabre
	22464: 0.44, // Flycatcher
	22452: 0.44, // Heretic
	22460: 0.44, // Eris
	12013: 0.40, // Broadsword
	11995: 0.40, // Onyx
	12021: 0.40, // Phobos
	12017: 0.40, // Devoter
	29984: 0.15, // Tengu
	29990: 0.29, // Loki
	11174: 0.30, // Keres
	35683: 0.05, // Hecate
	11969: 0.30, // Arazu
	11961: 0.30, // Huginn
	11957: 0.04, // Falcon
	29986: 0.09, // Legion
	47466: 0.10, // Praxis
	12038: 0.05, // Purifier
	12034: 0.05, // Hound
	17720: 0.12, // Cynabal
	11963: 0.16, // Rapier
	12044: 0.08, // Enyo
	17922: 0.18, // Ashimmu
	11999: 0.06, // Vagabond
	85086: 0.04, // Cenotaph
	33818: 0.03, // Orthrus
	11971: 0.22, // Lachesis
	4310:  0.01, // Tornado
	17738: 0.01, // Machariel
	11387: 0.03, // Hyena
}

// smartbombShips are hulls that indicate a dedicated smartbomb setup.
var smartbombShips = map[int64]bool{
	17738: true, // Machariel
	3756:  true, // Gnosis
	29988: true, // Proteus
	47466: true, // Praxis
}

// smartbombWeapons holds the exact weapon_type_id values that classify a kill
// as smartbomb work. Only an exact match counts.
var smartbombWeapons = map[int64]bool{
	// Large T1
	3993: true, 3977: true, 3987: true, 3981: true,
	// Large T2
	3983: true, 3989: true, 3979: true, 3995: true,
	// Medium T2
	3955: true, 3939: true, 3949: true, 3943: true,
	// Large EMP faction / officer / modified
	15963: true, // Imperial Navy Large EMP Smartbomb
	28545: true, // Khanid Navy Large EMP Smartbomb
	14190: true, // True Sansha Large EMP Smartbomb
	14792: true, // Vizan's Modified Large EMP Smartbomb
	9678:  true, // 'Vehemence' Compact Large EMP Smartbomb
	23868: true, // 'Warhammer' Large EMP Smartbomb
	14794: true, // Ahremen's Modified Large EMP Smartbomb
	15947: true, // Ammatar Navy Large EMP Smartbomb
	14784: true, // Brokara's Modified Large EMP Smartbomb
	14796: true, // Chelm's Modified Large EMP Smartbomb
	14188: true, // Dark Blood Large EMP Smartbomb
	14798: true, // Draclira's Modified Large EMP Smartbomb
	14790: true, // Raysere's Modified Large EMP Smartbomb
	14788: true, // Selynne's Modified Large EMP Smartbomb
	14786: true, // Tairei's Modified Large EMP Smartbomb
	// Large Proton faction / modified
	9772:  true, // 'Notos' Compact Large Proton Smartbomb
	21538: true, // 'Regressive' Large Proton Smartbomb
	14208: true, // Domination Large Proton Smartbomb
	14548: true, // Gotan's Modified Large Proton Smartbomb
	14546: true, // Hakim's Modified Large Proton Smartbomb
	14544: true, // Mizuro's Modified Large Proton Smartbomb
	15939: true, // Republic Fleet Large Proton Smartbomb
	14550: true, // Tobias' Modified Large Proton Smartbomb
	// Large Plasma faction / modified
	15955: true, // Federation Navy Large Plasma Smartbomb
	15156: true, // Setele's Modified Large Plasma Smartbomb
	14206: true, // Shadow Serpentis Large Plasma Smartbomb
	15154: true, // Tuvan's Modified Large Plasma Smartbomb
	84496: true, // 'Scalding' Large Plasma Smartbomb
	9808:  true, // 'YF-12a' Compact Large Plasma Smartbomb
	15152: true, // Brynn's Modified Large Plasma Smartbomb
	15158: true, // Cormack's Modified Large Plasma Smartbomb
	// Large Graviton faction / modified
	14694: true, // Thon's Modified Large Graviton Smartbomb
	14696: true, // Vepas' Modified Large Graviton Smartbomb
	84495: true, // 'Blasting' Large Graviton Smartbomb
	9668:  true, // 'Concussion' Compact Large Graviton Smartbomb
	15931: true, // Caldari Navy Large Graviton Smartbomb
	14204: true, // Dread Guristas Large Graviton Smartbomb
	14698: true, // Estamel's Modified Large Graviton Smartbomb
	14692: true, // Kaikka's Modified Large Graviton Smartbomb
	// Medium Plasma
	15953: true, // Federation Navy Medium Plasma Smartbomb
	14220: true, // Shadow Serpentis Medium Plasma Smartbomb
	84498: true, // 'Boiling' Medium Plasma Smartbomb
	9800:  true, // 'YF-12a' Compact Medium Plasma Smartbomb
	// Medium Proton
	14222: true, // Domination Medium Proton Smartbomb
	15937: true, // Republic Fleet Medium Proton Smartbomb
	21536: true, // 'Dwindling' Medium Proton Smartbomb
	9762:  true, // 'Notos' Compact Medium Proton Smartbomb
	// Medium Graviton
	15929: true, // Caldari Navy Medium Graviton Smartbomb
	14210: true, // Dread Guristas Medium Graviton Smartbomb
	84497: true, // 'Booming' Medium Graviton Smartbomb
	9728:  true, // 'Concussion' Compact Medium Graviton Smartbomb
	// Medium EMP
	14192: true, // Dark Blood Medium EMP Smartbomb
	14194: true, // True Sansha Medium EMP Smartbomb
	15961: true, // Imperial Navy Medium EMP Smartbomb
	23866: true, // 'Lance' Medium EMP Smartbomb
	9734:  true, // 'Vehemence' Compact Medium EMP Smartbomb
	15945: true, // Ammatar Navy Medium EMP Smartbomb
}

// permanentCamp is a known chokepoint with its probability weight.
type permanentCamp struct {
	Gates  []string
	Weight float64
}

// permanentCamps maps system id to its notorious gates. A camp session at a
// matching gate starts with a head start.
var permanentCamps = map[int64]permanentCamp{
	30002813: {Gates: []string{"Nourvukaiken", "Kedama"}, Weight: 0.50}, // Tama
	30003068: {Gates: []string{"Miroitem", "Crielere"}, Weight: 0.50},   // Rancer
	30000142: {Gates: []string{"Perimeter"}, Weight: 0.25},              // Jita
	30002647: {Gates: []string{"Iyen-Oursta"}, Weight: 0.30},            // Ignoitton
	30005196: {Gates: []string{"Shera"}, Weight: 0.40},                  // Ahbazon
}
