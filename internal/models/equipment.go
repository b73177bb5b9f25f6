package models

import "strings"

// Equipment type tags used across the scheduler. Types with a trailing
// dash are matched as prefixes of the configured type string, so
// "comfortboiler-1" resolves to TypeComfortBoiler.
const (
	TypeBoiler         = "boiler"
	TypeComfortBoiler  = "comfortboiler"
	TypeDomesticBoiler = "domesticboiler"
	TypeChiller        = "chiller"
	TypeAirHandler     = "ahu"
	TypeFanCoil        = "fancoil"
	TypeHWPump         = "hwpump"
	TypeCWPump         = "cwpump"
	TypeDOAS           = "doas"
	TypeGeothermal     = "geo"
	TypeSteamBundle    = "steambundle"
	TypeMechanicalRoom = "mechanicalroom"
)

// EquipmentConfig is one controllable device as configured. Immutable at
// runtime; loaded from the configuration store at startup and shared
// read-only by all components.
type EquipmentConfig struct {
	ID           string         `json:"id"`
	LocationID   string         `json:"location_id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`       // e.g. "boiler-1", "doas-2"
	System       string         `json:"system"`     // e.g. "HotWater", "ChilledWater"
	PumpGroup    string         `json:"pump_group"` // lead/lag membership tag, empty if standalone
	DesignAmps   float64        `json:"design_amps,omitempty"`
	DesignGPM    float64        `json:"design_gpm,omitempty"`
	Thresholds   *ThresholdNode `json:"thresholds,omitempty"`
	LocationName string         `json:"location_name,omitempty"`
}

// BaseType strips the instance suffix from the configured type string:
// "comfortboiler-2" -> "comfortboiler". Longer tags are matched before
// their prefixes so "comfortboiler" never resolves to "boiler".
func (e EquipmentConfig) BaseType() string {
	return BaseTypeOf(e.Type)
}

var knownTypes = []string{
	TypeComfortBoiler,
	TypeDomesticBoiler,
	TypeSteamBundle,
	TypeMechanicalRoom,
	TypeAirHandler,
	TypeFanCoil,
	TypeHWPump,
	TypeCWPump,
	TypeBoiler,
	TypeChiller,
	TypeDOAS,
	TypeGeothermal,
}

// BaseTypeOf resolves a type tag ("boiler-1", "geo") to its base type.
// Unknown tags return the portion before the first dash.
func BaseTypeOf(typeTag string) string {
	tag := strings.ToLower(strings.TrimSpace(typeTag))
	for _, known := range knownTypes {
		if tag == known || strings.HasPrefix(tag, known+"-") {
			return known
		}
	}
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return tag[:i]
	}
	return tag
}

// IsBoilerType reports whether the base type is any of the boiler variants.
func IsBoilerType(baseType string) bool {
	switch baseType {
	case TypeBoiler, TypeComfortBoiler, TypeDomesticBoiler:
		return true
	}
	return false
}
