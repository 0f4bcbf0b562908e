package domain

import "time"

// FieldRequest asks for a hyperlocal forecast at one coordinate.
type FieldRequest struct {
	Coordinate
	FieldID string `json:"field_id,omitempty" validate:"omitempty,max=128"`
}

// CropRequest asks for a field forecast with crop-specific advice.
type CropRequest struct {
	FieldRequest
	Crop  CropType    `json:"crop" validate:"required,max=64"`
	Stage GrowthStage `json:"growth_stage" validate:"required,oneof=planting emergence vegetative flowering grain_fill maturity harvest"`
}

// TrendsRequest asks for a daily trend series over an inclusive date range.
type TrendsRequest struct {
	Coordinate
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// MicroclimateRequest carries a field boundary for spatial analysis.
type MicroclimateRequest struct {
	FieldID  string       `json:"field_id,omitempty"`
	Boundary []Coordinate `json:"boundary" validate:"min=3,dive"`
}

// GridRequest asks for a microclimate analysis of a circular area.
type GridRequest struct {
	Center   Coordinate `json:"center"`
	RadiusKm float64    `json:"radius_km" validate:"gt=0,lte=50"`
}
