package service

import (
	"fmt"
	"testing"
	"time"
)

// logNEOTier outputs structured log for NEO AI verification of tier capabilities
func logNEOTier(t *testing.T, category, tier, capability, purpose, reqRef string, expected, actual interface{}, assertion string, passed bool) {
	result := "PASS"
	if !passed {
		result = "FAIL"
	}
	t.Logf(`
=== NEO_VERIFY: %s ===
TIER: %s
CAPABILITY: %s
PURPOSE: %s
REQUIREMENT_REF: %s
EXPECTED: %v
ACTUAL: %v
ASSERTION: %s
RESULT: %s
=== END_VERIFY ===`, category, tier, capability, purpose, reqRef, expected, actual, assertion, result)
}

// ============================================
// TIER: Basic
// ============================================

func TestTier_Basic_ShardCopies(t *testing.T) {
	caps := GetCapabilities(TierBasic)

	passed := caps.ShardCopies == 3
	logNEOTier(t, "Tier.Basic.Shards",
		"Basic",
		"ShardCopies",
		"Basic tier stores 3 copies of encrypted shards",
		"docs/requirements/03_TECHNICAL_IMPLEMENTATION.md#shard-distribution",
		3,
		caps.ShardCopies,
		"Basic tier ShardCopies = 3",
		passed)

	if !passed {
		t.Errorf("Basic tier ShardCopies expected 3, got %d", caps.ShardCopies)
	}
}

func TestTier_Basic_DecoyRatio(t *testing.T) {
	caps := GetCapabilities(TierBasic)

	passed := caps.DecoyRatio == 0.5
	logNEOTier(t, "Tier.Basic.Decoy",
		"Basic",
		"DecoyRatio",
		"Basic tier generates 0.5x decoy characters per real character",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-characters",
		0.5,
		caps.DecoyRatio,
		"Basic tier DecoyRatio = 0.5",
		passed)

	if !passed {
		t.Errorf("Basic tier DecoyRatio expected 0.5, got %f", caps.DecoyRatio)
	}
}

func TestTier_Basic_MetadataDecoy(t *testing.T) {
	caps := GetCapabilities(TierBasic)

	passed := caps.MetadataDecoyRatio == 0
	logNEOTier(t, "Tier.Basic.MetadataDecoy",
		"Basic",
		"MetadataDecoyRatio",
		"Basic tier has no metadata decoys",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-metadata",
		0.0,
		caps.MetadataDecoyRatio,
		"Basic tier MetadataDecoyRatio = 0 (no decoy metadata)",
		passed)

	if !passed {
		t.Errorf("Basic tier MetadataDecoyRatio expected 0, got %f", caps.MetadataDecoyRatio)
	}
}

func TestTier_Basic_MultiSig(t *testing.T) {
	caps := GetCapabilities(TierBasic)

	passed := caps.MultiSigSupported == false
	logNEOTier(t, "Tier.Basic.MultiSig",
		"Basic",
		"MultiSigSupported",
		"Basic tier does not support multi-signature",
		"docs/requirements/02_SECURITY_MECHANISMS.md#multi-signature",
		false,
		caps.MultiSigSupported,
		"Basic tier MultiSigSupported = false",
		passed)

	if !passed {
		t.Errorf("Basic tier MultiSigSupported expected false, got %v", caps.MultiSigSupported)
	}
}

func TestTier_Basic_EmergencyUnlock(t *testing.T) {
	caps := GetCapabilities(TierBasic)

	passed := caps.EmergencyUnlock == false
	logNEOTier(t, "Tier.Basic.EmergencyUnlock",
		"Basic",
		"EmergencyUnlock",
		"Basic tier does not support emergency unlock",
		"docs/requirements/02_SECURITY_MECHANISMS.md#emergency-unlock",
		false,
		caps.EmergencyUnlock,
		"Basic tier EmergencyUnlock = false",
		passed)

	if !passed {
		t.Errorf("Basic tier EmergencyUnlock expected false, got %v", caps.EmergencyUnlock)
	}
}

func TestTier_Basic_MaxLockDuration(t *testing.T) {
	caps := GetCapabilities(TierBasic)

	expected := 30 * 24 * time.Hour // 30 days
	passed := caps.MaxLockDuration == expected
	logNEOTier(t, "Tier.Basic.MaxLockDuration",
		"Basic",
		"MaxLockDuration",
		"Basic tier allows up to 30 days lock duration",
		"docs/requirements/04_APIS_AND_ECONOMICS.md#tier-limits",
		"30 days",
		caps.MaxLockDuration.String(),
		"Basic tier MaxLockDuration = 30 days",
		passed)

	if !passed {
		t.Errorf("Basic tier MaxLockDuration expected 30 days, got %v", caps.MaxLockDuration)
	}
}

// ============================================
// TIER: Standard
// ============================================

func TestTier_Standard_ShardCopies(t *testing.T) {
	caps := GetCapabilities(TierStandard)

	passed := caps.ShardCopies == 5
	logNEOTier(t, "Tier.Standard.Shards",
		"Standard",
		"ShardCopies",
		"Standard tier stores 5 copies of encrypted shards",
		"docs/requirements/03_TECHNICAL_IMPLEMENTATION.md#shard-distribution",
		5,
		caps.ShardCopies,
		"Standard tier ShardCopies = 5",
		passed)

	if !passed {
		t.Errorf("Standard tier ShardCopies expected 5, got %d", caps.ShardCopies)
	}
}

func TestTier_Standard_DecoyRatio(t *testing.T) {
	caps := GetCapabilities(TierStandard)

	passed := caps.DecoyRatio == 1.0
	logNEOTier(t, "Tier.Standard.Decoy",
		"Standard",
		"DecoyRatio",
		"Standard tier generates 1.0x decoy characters per real character",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-characters",
		1.0,
		caps.DecoyRatio,
		"Standard tier DecoyRatio = 1.0",
		passed)

	if !passed {
		t.Errorf("Standard tier DecoyRatio expected 1.0, got %f", caps.DecoyRatio)
	}
}

func TestTier_Standard_MultiSig(t *testing.T) {
	caps := GetCapabilities(TierStandard)

	passed := caps.MultiSigSupported == true
	logNEOTier(t, "Tier.Standard.MultiSig",
		"Standard",
		"MultiSigSupported",
		"Standard tier supports multi-signature unlock",
		"docs/requirements/02_SECURITY_MECHANISMS.md#multi-signature",
		true,
		caps.MultiSigSupported,
		"Standard tier MultiSigSupported = true",
		passed)

	if !passed {
		t.Errorf("Standard tier MultiSigSupported expected true, got %v", caps.MultiSigSupported)
	}
}

func TestTier_Standard_EmergencyUnlock(t *testing.T) {
	caps := GetCapabilities(TierStandard)

	passed := caps.EmergencyUnlock == true
	logNEOTier(t, "Tier.Standard.EmergencyUnlock",
		"Standard",
		"EmergencyUnlock",
		"Standard tier supports emergency unlock with delay",
		"docs/requirements/02_SECURITY_MECHANISMS.md#emergency-unlock",
		true,
		caps.EmergencyUnlock,
		"Standard tier EmergencyUnlock = true",
		passed)

	if !passed {
		t.Errorf("Standard tier EmergencyUnlock expected true, got %v", caps.EmergencyUnlock)
	}
}

func TestTier_Standard_MaxLockDuration(t *testing.T) {
	caps := GetCapabilities(TierStandard)

	expected := 365 * 24 * time.Hour // 1 year
	passed := caps.MaxLockDuration == expected
	logNEOTier(t, "Tier.Standard.MaxLockDuration",
		"Standard",
		"MaxLockDuration",
		"Standard tier allows up to 1 year lock duration",
		"docs/requirements/04_APIS_AND_ECONOMICS.md#tier-limits",
		"365 days",
		caps.MaxLockDuration.String(),
		"Standard tier MaxLockDuration = 1 year",
		passed)

	if !passed {
		t.Errorf("Standard tier MaxLockDuration expected 1 year, got %v", caps.MaxLockDuration)
	}
}

func TestTier_Standard_GeoRedundancy(t *testing.T) {
	caps := GetCapabilities(TierStandard)

	passed := caps.GeographicRedundancy >= 3
	logNEOTier(t, "Tier.Standard.GeoRedundancy",
		"Standard",
		"GeographicRedundancy",
		"Standard tier requires minimum 3 geographic regions",
		"docs/requirements/02_SECURITY_MECHANISMS.md#geographic-distribution",
		">=3",
		caps.GeographicRedundancy,
		"Standard tier requires 3+ regions for shard distribution",
		passed)

	if !passed {
		t.Errorf("Standard tier GeographicRedundancy expected >=3, got %d", caps.GeographicRedundancy)
	}
}

// ============================================
// TIER: Premium
// ============================================

func TestTier_Premium_ShardCopies(t *testing.T) {
	caps := GetCapabilities(TierPremium)

	passed := caps.ShardCopies == 7
	logNEOTier(t, "Tier.Premium.Shards",
		"Premium",
		"ShardCopies",
		"Premium tier stores 7 copies of encrypted shards",
		"docs/requirements/03_TECHNICAL_IMPLEMENTATION.md#shard-distribution",
		7,
		caps.ShardCopies,
		"Premium tier ShardCopies = 7",
		passed)

	if !passed {
		t.Errorf("Premium tier ShardCopies expected 7, got %d", caps.ShardCopies)
	}
}

func TestTier_Premium_DecoyRatio(t *testing.T) {
	caps := GetCapabilities(TierPremium)

	passed := caps.DecoyRatio == 1.5
	logNEOTier(t, "Tier.Premium.Decoy",
		"Premium",
		"DecoyRatio",
		"Premium tier generates 1.5x decoy characters per real character",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-characters",
		1.5,
		caps.DecoyRatio,
		"Premium tier DecoyRatio = 1.5",
		passed)

	if !passed {
		t.Errorf("Premium tier DecoyRatio expected 1.5, got %f", caps.DecoyRatio)
	}
}

func TestTier_Premium_MetadataDecoy(t *testing.T) {
	caps := GetCapabilities(TierPremium)

	passed := caps.MetadataDecoyRatio == 1.0
	logNEOTier(t, "Tier.Premium.MetadataDecoy",
		"Premium",
		"MetadataDecoyRatio",
		"Premium tier has 1:1 decoy metadata ratio",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-metadata",
		1.0,
		caps.MetadataDecoyRatio,
		"Premium tier MetadataDecoyRatio = 1.0",
		passed)

	if !passed {
		t.Errorf("Premium tier MetadataDecoyRatio expected 1.0, got %f", caps.MetadataDecoyRatio)
	}
}

func TestTier_Premium_MaxLockDuration(t *testing.T) {
	caps := GetCapabilities(TierPremium)

	expected := 5 * 365 * 24 * time.Hour // 5 years
	passed := caps.MaxLockDuration == expected
	logNEOTier(t, "Tier.Premium.MaxLockDuration",
		"Premium",
		"MaxLockDuration",
		"Premium tier allows up to 5 years lock duration",
		"docs/requirements/04_APIS_AND_ECONOMICS.md#tier-limits",
		"5 years",
		caps.MaxLockDuration.String(),
		"Premium tier MaxLockDuration = 5 years",
		passed)

	if !passed {
		t.Errorf("Premium tier MaxLockDuration expected 5 years, got %v", caps.MaxLockDuration)
	}
}

// ============================================
// TIER: Elite
// ============================================

func TestTier_Elite_ShardCopies(t *testing.T) {
	caps := GetCapabilities(TierElite)

	passed := caps.ShardCopies >= 10
	logNEOTier(t, "Tier.Elite.Shards",
		"Elite",
		"ShardCopies",
		"Elite tier stores 10+ copies of encrypted shards",
		"docs/requirements/03_TECHNICAL_IMPLEMENTATION.md#shard-distribution",
		">=10",
		caps.ShardCopies,
		"Elite tier ShardCopies >= 10",
		passed)

	if !passed {
		t.Errorf("Elite tier ShardCopies expected >=10, got %d", caps.ShardCopies)
	}
}

func TestTier_Elite_DecoyRatio(t *testing.T) {
	caps := GetCapabilities(TierElite)

	passed := caps.DecoyRatio == 2.0
	logNEOTier(t, "Tier.Elite.Decoy",
		"Elite",
		"DecoyRatio",
		"Elite tier generates 2.0x decoy characters per real character",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-characters",
		2.0,
		caps.DecoyRatio,
		"Elite tier DecoyRatio = 2.0",
		passed)

	if !passed {
		t.Errorf("Elite tier DecoyRatio expected 2.0, got %f", caps.DecoyRatio)
	}
}

func TestTier_Elite_MetadataDecoy(t *testing.T) {
	caps := GetCapabilities(TierElite)

	passed := caps.MetadataDecoyRatio == 2.0
	logNEOTier(t, "Tier.Elite.MetadataDecoy",
		"Elite",
		"MetadataDecoyRatio",
		"Elite tier has 2:1 decoy metadata ratio",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-metadata",
		2.0,
		caps.MetadataDecoyRatio,
		"Elite tier MetadataDecoyRatio = 2.0",
		passed)

	if !passed {
		t.Errorf("Elite tier MetadataDecoyRatio expected 2.0, got %f", caps.MetadataDecoyRatio)
	}
}

func TestTier_Elite_MaxLockDuration(t *testing.T) {
	caps := GetCapabilities(TierElite)

	expected := 100 * 365 * 24 * time.Hour // 100 years
	passed := caps.MaxLockDuration == expected
	logNEOTier(t, "Tier.Elite.MaxLockDuration",
		"Elite",
		"MaxLockDuration",
		"Elite tier allows up to 100 years lock duration",
		"docs/requirements/04_APIS_AND_ECONOMICS.md#tier-limits",
		"100 years",
		caps.MaxLockDuration.String(),
		"Elite tier MaxLockDuration = 100 years",
		passed)

	if !passed {
		t.Errorf("Elite tier MaxLockDuration expected 100 years, got %v", caps.MaxLockDuration)
	}
}

func TestTier_Elite_GeoRedundancy(t *testing.T) {
	caps := GetCapabilities(TierElite)

	passed := caps.GeographicRedundancy >= 5
	logNEOTier(t, "Tier.Elite.GeoRedundancy",
		"Elite",
		"GeographicRedundancy",
		"Elite tier requires minimum 5 geographic regions",
		"docs/requirements/02_SECURITY_MECHANISMS.md#geographic-distribution",
		">=5",
		caps.GeographicRedundancy,
		"Elite tier requires 5+ regions for maximum redundancy",
		passed)

	if !passed {
		t.Errorf("Elite tier GeographicRedundancy expected >=5, got %d", caps.GeographicRedundancy)
	}
}

func TestTier_Elite_UnlimitedAssets(t *testing.T) {
	caps := GetCapabilities(TierElite)

	passed := caps.MaxAssetsPerUser == -1 // -1 = unlimited
	logNEOTier(t, "Tier.Elite.UnlimitedAssets",
		"Elite",
		"MaxAssetsPerUser",
		"Elite tier has unlimited assets per user",
		"docs/requirements/04_APIS_AND_ECONOMICS.md#tier-limits",
		-1,
		caps.MaxAssetsPerUser,
		"Elite tier MaxAssetsPerUser = -1 (unlimited)",
		passed)

	if !passed {
		t.Errorf("Elite tier MaxAssetsPerUser expected -1 (unlimited), got %d", caps.MaxAssetsPerUser)
	}
}

func TestTier_Elite_UnlimitedAPIRate(t *testing.T) {
	caps := GetCapabilities(TierElite)

	passed := caps.APIRateLimit == -1 // -1 = unlimited
	logNEOTier(t, "Tier.Elite.UnlimitedAPIRate",
		"Elite",
		"APIRateLimit",
		"Elite tier has unlimited API rate",
		"docs/requirements/04_APIS_AND_ECONOMICS.md#tier-limits",
		-1,
		caps.APIRateLimit,
		"Elite tier APIRateLimit = -1 (unlimited)",
		passed)

	if !passed {
		t.Errorf("Elite tier APIRateLimit expected -1 (unlimited), got %d", caps.APIRateLimit)
	}
}

// ============================================
// TIER: Comparison and Upgrade Path
// ============================================

func TestTier_UpgradePath_ShardCopies(t *testing.T) {
	basic := GetCapabilities(TierBasic)
	standard := GetCapabilities(TierStandard)
	premium := GetCapabilities(TierPremium)
	elite := GetCapabilities(TierElite)

	// Verify upgrade path: Basic(3) < Standard(5) < Premium(7) < Elite(10)
	passed := basic.ShardCopies < standard.ShardCopies &&
		standard.ShardCopies < premium.ShardCopies &&
		premium.ShardCopies < elite.ShardCopies

	logNEOTier(t, "Tier.UpgradePath.ShardCopies",
		"All",
		"ShardCopies progression",
		"Shard copies increase with tier upgrade",
		"docs/requirements/03_TECHNICAL_IMPLEMENTATION.md#shard-distribution",
		fmt.Sprintf("Basic(%d) < Standard(%d) < Premium(%d) < Elite(%d)", 3, 5, 7, 10),
		fmt.Sprintf("Basic(%d) < Standard(%d) < Premium(%d) < Elite(%d)",
			basic.ShardCopies, standard.ShardCopies, premium.ShardCopies, elite.ShardCopies),
		"Each tier upgrade increases shard redundancy",
		passed)

	if !passed {
		t.Error("ShardCopies should increase with each tier upgrade")
	}
}

func TestTier_UpgradePath_DecoyRatio(t *testing.T) {
	basic := GetCapabilities(TierBasic)
	standard := GetCapabilities(TierStandard)
	premium := GetCapabilities(TierPremium)
	elite := GetCapabilities(TierElite)

	// Verify upgrade path: Basic(0.5) < Standard(1.0) < Premium(1.5) < Elite(2.0)
	passed := basic.DecoyRatio < standard.DecoyRatio &&
		standard.DecoyRatio < premium.DecoyRatio &&
		premium.DecoyRatio < elite.DecoyRatio

	logNEOTier(t, "Tier.UpgradePath.DecoyRatio",
		"All",
		"DecoyRatio progression",
		"Decoy ratio increases with tier upgrade",
		"docs/requirements/02_SECURITY_MECHANISMS.md#decoy-characters",
		fmt.Sprintf("Basic(%.1f) < Standard(%.1f) < Premium(%.1f) < Elite(%.1f)", 0.5, 1.0, 1.5, 2.0),
		fmt.Sprintf("Basic(%.1f) < Standard(%.1f) < Premium(%.1f) < Elite(%.1f)",
			basic.DecoyRatio, standard.DecoyRatio, premium.DecoyRatio, elite.DecoyRatio),
		"Each tier upgrade increases decoy security",
		passed)

	if !passed {
		t.Error("DecoyRatio should increase with each tier upgrade")
	}
}

func TestTier_UpgradePath_MaxLockDuration(t *testing.T) {
	basic := GetCapabilities(TierBasic)
	standard := GetCapabilities(TierStandard)
	premium := GetCapabilities(TierPremium)
	elite := GetCapabilities(TierElite)

	passed := basic.MaxLockDuration < standard.MaxLockDuration &&
		standard.MaxLockDuration < premium.MaxLockDuration &&
		premium.MaxLockDuration < elite.MaxLockDuration

	logNEOTier(t, "Tier.UpgradePath.MaxLockDuration",
		"All",
		"MaxLockDuration progression",
		"Maximum lock duration increases with tier upgrade",
		"docs/requirements/04_APIS_AND_ECONOMICS.md#tier-limits",
		"Basic < Standard < Premium < Elite",
		fmt.Sprintf("Basic(%s) < Standard(%s) < Premium(%s) < Elite(%s)",
			basic.MaxLockDuration, standard.MaxLockDuration, premium.MaxLockDuration, elite.MaxLockDuration),
		"Each tier upgrade allows longer lock periods",
		passed)

	if !passed {
		t.Error("MaxLockDuration should increase with each tier upgrade")
	}
}
