package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// CropType names a supported crop. Unknown crops fall back to a generic
// profile.
type CropType string

const (
	CropCorn     CropType = "corn"
	CropSoybeans CropType = "soybeans"
	CropWheat    CropType = "wheat"
	CropRice     CropType = "rice"
	CropCotton   CropType = "cotton"
	CropGeneric  CropType = "generic"
)

// GrowthStage is the phenological stage of a crop.
type GrowthStage string

const (
	StagePlanting   GrowthStage = "planting"
	StageEmergence  GrowthStage = "emergence"
	StageVegetative GrowthStage = "vegetative"
	StageFlowering  GrowthStage = "flowering"
	StageGrainFill  GrowthStage = "grain_fill"
	StageMaturity   GrowthStage = "maturity"
	StageHarvest    GrowthStage = "harvest"
)

// CropProfile holds the agronomic thresholds for a crop.
type CropProfile struct {
	Crop            CropType
	HeatStressC     float64
	FrostToleranceC float64
	OptimalMinC     float64
	OptimalMaxC     float64
	SensitiveStages []GrowthStage
}

var cropProfiles = map[CropType]CropProfile{
	CropCorn: {
		Crop: CropCorn, HeatStressC: 32, FrostToleranceC: 0, OptimalMinC: 18, OptimalMaxC: 30,
		SensitiveStages: []GrowthStage{StageFlowering, StageGrainFill},
	},
	CropSoybeans: {
		Crop: CropSoybeans, HeatStressC: 33, FrostToleranceC: 0, OptimalMinC: 20, OptimalMaxC: 30,
		SensitiveStages: []GrowthStage{StageFlowering, StageGrainFill},
	},
	CropWheat: {
		Crop: CropWheat, HeatStressC: 30, FrostToleranceC: -4, OptimalMinC: 12, OptimalMaxC: 24,
		SensitiveStages: []GrowthStage{StageFlowering, StageGrainFill},
	},
	CropRice: {
		Crop: CropRice, HeatStressC: 35, FrostToleranceC: 4, OptimalMinC: 22, OptimalMaxC: 32,
		SensitiveStages: []GrowthStage{StageFlowering},
	},
	CropCotton: {
		Crop: CropCotton, HeatStressC: 35, FrostToleranceC: 2, OptimalMinC: 21, OptimalMaxC: 32,
		SensitiveStages: []GrowthStage{StageFlowering},
	},
	CropGeneric: {
		Crop: CropGeneric, HeatStressC: 32, FrostToleranceC: 0, OptimalMinC: 15, OptimalMaxC: 28,
		SensitiveStages: []GrowthStage{StageFlowering},
	},
}

const (
	advisoryWindowDays = 3
	droughtPrecipMM    = 10.0
	drainagePrecipMM   = 75.0
	sprayMaxWind       = 5.0
	sprayMaxPrecipMM   = 1.0
	plantingSoilTempC  = 10.0
	harvestMaxPrecipMM = 5.0
)

// ProfileFor returns the profile for crop, or the generic profile.
func ProfileFor(crop CropType) CropProfile {
	if p, ok := cropProfiles[CropType(strings.ToLower(string(crop)))]; ok {
		return p
	}
	return cropProfiles[CropGeneric]
}

// CropAdvisory is crop- and stage-specific guidance derived from a forecast.
type CropAdvisory struct {
	CropType        CropType    `json:"crop_type"`
	GrowthStage     GrowthStage `json:"growth_stage"`
	Recommendations []string    `json:"recommendations"`
	Risks           []string    `json:"risks"`
	Opportunities   []string    `json:"opportunities"`
	Confidence      float64     `json:"confidence"`
}

// CropForecast is a field forecast with its crop advisory.
type CropForecast struct {
	HyperlocalForecast
	CropAdvisory CropAdvisory `json:"crop_advisory"`
}

// BuildCropAdvisory evaluates the first three forecast days against the
// crop's thresholds.
func BuildCropAdvisory(f HyperlocalForecast, crop CropType, stage GrowthStage) CropAdvisory {
	profile := ProfileFor(crop)
	adv := CropAdvisory{
		CropType:        crop,
		GrowthStage:     stage,
		Recommendations: []string{},
		Risks:           []string{},
		Opportunities:   []string{},
		Confidence:      f.Metadata.Confidence,
	}
	if len(f.Daily) > 0 {
		adv.Confidence = math.Min(adv.Confidence, f.Daily[0].Confidence)
	}

	days := f.Daily
	if len(days) > advisoryWindowDays {
		days = days[:advisoryWindowDays]
	}

	if len(days) > 0 {
		var tempSum, precip float64
		minLow := math.Inf(1)
		for _, d := range days {
			tempSum += (d.TemperatureMin + d.TemperatureMax) / 2
			precip += d.Precipitation.Total
			minLow = math.Min(minLow, d.TemperatureMin)
		}
		avgTemp := tempSum / float64(len(days))
		sensitive := slices.Contains(profile.SensitiveStages, stage)

		switch {
		case avgTemp > profile.HeatStressC && sensitive:
			adv.Risks = append(adv.Risks,
				fmt.Sprintf("Heat stress during %s: average temperature %.1f°C exceeds %.0f°C", stage, avgTemp, profile.HeatStressC))
			adv.Recommendations = append(adv.Recommendations,
				"Irrigate to reduce canopy temperature during the heat of the day")
		case avgTemp > profile.HeatStressC:
			adv.Recommendations = append(adv.Recommendations,
				fmt.Sprintf("Monitor %s for heat stress; temperatures exceed %.0f°C", profile.Crop, profile.HeatStressC))
		case avgTemp >= profile.OptimalMinC && avgTemp <= profile.OptimalMaxC:
			adv.Opportunities = append(adv.Opportunities,
				fmt.Sprintf("Temperatures are in the optimal range for %s growth", profile.Crop))
		}

		switch {
		case precip < droughtPrecipMM:
			adv.Risks = append(adv.Risks,
				fmt.Sprintf("Drought stress: only %.1fmm of rain expected over %d days", precip, len(days)))
			adv.Recommendations = append(adv.Recommendations,
				"Consider supplemental irrigation")
		case precip > drainagePrecipMM:
			adv.Risks = append(adv.Risks,
				fmt.Sprintf("Waterlogging: %.0fmm of rain expected over %d days", precip, len(days)))
			adv.Recommendations = append(adv.Recommendations,
				"Check field drainage and clear outlets before heavy rain")
		default:
			adv.Opportunities = append(adv.Opportunities, "Adequate soil moisture expected")
		}

		if minLow < profile.FrostToleranceC {
			adv.Risks = append(adv.Risks,
				fmt.Sprintf("Frost damage: lows of %.1f°C are below the %s tolerance of %.0f°C", minLow, profile.Crop, profile.FrostToleranceC))
			adv.Recommendations = append(adv.Recommendations,
				"Protect plants from frost overnight")
		}

		for _, d := range days {
			if d.Precipitation.Total < sprayMaxPrecipMM && d.WindSpeed < sprayMaxWind {
				adv.Opportunities = append(adv.Opportunities,
					fmt.Sprintf("Favorable spraying window on %s", d.Date.Format("2006-01-02")))
				break
			}
		}

		switch stage {
		case StagePlanting:
			if minLow >= plantingSoilTempC {
				adv.Opportunities = append(adv.Opportunities, "Soil temperatures support planting")
			} else {
				adv.Recommendations = append(adv.Recommendations, "Delay planting until soils warm above 10°C")
			}
		case StageHarvest, StageMaturity:
			if precip < harvestMaxPrecipMM {
				adv.Opportunities = append(adv.Opportunities, "Dry conditions favor harvest operations")
			}
		}
	}

	for _, a := range f.Alerts {
		adv.Risks = append(adv.Risks, fmt.Sprintf("%s alert (%s): %s", a.Type, a.Severity, a.Description))
	}

	if len(adv.Recommendations) == 0 {
		adv.Recommendations = append(adv.Recommendations, "Continue routine crop monitoring")
	}
	return adv
}
