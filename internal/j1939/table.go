// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package j1939

import "sort"

// Parameter group numbers handled by the default table.
const (
	PGNEEC1 uint32 = 61444 // Electronic Engine Controller 1
	PGNET1  uint32 = 65262 // Engine Temperature 1
	PGNEFLP uint32 = 65263 // Engine Fluid Level/Pressure 1
	PGNVP   uint32 = 65267 // Vehicle Position
	PGNAMB  uint32 = 65269 // Ambient Conditions
)

// Field names surfaced downstream.
const (
	FieldEngineSpeed         = "Engine_Speed"
	FieldEnginePercentLoad   = "Engine_Percent_Load"
	FieldActualEngineTorque  = "Actual_Engine_Percent_Torque"
	FieldCoolantTemperature  = "Engine_Coolant_Temperature"
	FieldFuelTemperature     = "Fuel_Temperature"
	FieldFuelDeliveryPress   = "Fuel_Delivery_Pressure"
	FieldEngineOilPressure   = "Engine_Oil_Pressure"
	FieldLatitude            = "Latitude"
	FieldLongitude           = "Longitude"
	FieldAmbientTemperature  = "Ambient_Air_Temperature"
	FieldAirInletTemperature = "Air_Inlet_Temperature"
)

// Layout describes where one SPN lives inside a PGN payload.
type Layout struct {
	SPN        uint32  `json:"spn"`
	Name       string  `json:"name"`
	StartBit   uint    `json:"start_bit"`
	BitLength  uint    `json:"bit_length"`
	Resolution float64 `json:"resolution"`
	Unit       string  `json:"unit"`
}

// ParameterGroup is the decoding entry for one PGN.
type ParameterGroup struct {
	PGN     uint32   `json:"pgn"`
	Acronym string   `json:"acronym"`
	Label   string   `json:"label"`
	SPNs    []Layout `json:"spns"`
}

// Table maps a PGN to its parameter group. Tables are treated as immutable
// once handed to a Decoder.
type Table map[uint32]ParameterGroup

// defaultTable is the built-in layout set. Within a PGN the SPN bit ranges do
// not overlap and no field is wider than 32 bits.
var defaultTable = Table{
	PGNEEC1: {
		PGN: PGNEEC1, Acronym: "EEC1", Label: "Electronic Engine Controller 1",
		SPNs: []Layout{
			{SPN: 512, Name: FieldEnginePercentLoad, StartBit: 8, BitLength: 8, Resolution: 1, Unit: "%"},
			{SPN: 513, Name: FieldActualEngineTorque, StartBit: 16, BitLength: 8, Resolution: 1, Unit: "%"},
			{SPN: 190, Name: FieldEngineSpeed, StartBit: 24, BitLength: 16, Resolution: 0.125, Unit: "rpm"},
		},
	},
	PGNET1: {
		PGN: PGNET1, Acronym: "ET1", Label: "Engine Temperature 1",
		SPNs: []Layout{
			{SPN: 110, Name: FieldCoolantTemperature, StartBit: 0, BitLength: 8, Resolution: 1, Unit: "degC"},
			{SPN: 174, Name: FieldFuelTemperature, StartBit: 8, BitLength: 8, Resolution: 1, Unit: "degC"},
		},
	},
	PGNEFLP: {
		PGN: PGNEFLP, Acronym: "EFL/P1", Label: "Engine Fluid Level/Pressure 1",
		SPNs: []Layout{
			{SPN: 94, Name: FieldFuelDeliveryPress, StartBit: 0, BitLength: 8, Resolution: 4, Unit: "kPa"},
			{SPN: 100, Name: FieldEngineOilPressure, StartBit: 16, BitLength: 8, Resolution: 4, Unit: "kPa"},
		},
	},
	PGNVP: {
		PGN: PGNVP, Acronym: "VP", Label: "Vehicle Position",
		SPNs: []Layout{
			{SPN: 584, Name: FieldLatitude, StartBit: 0, BitLength: 32, Resolution: 1e-7, Unit: "deg"},
			{SPN: 585, Name: FieldLongitude, StartBit: 32, BitLength: 32, Resolution: 1e-7, Unit: "deg"},
		},
	},
	PGNAMB: {
		PGN: PGNAMB, Acronym: "AMB", Label: "Ambient Conditions",
		SPNs: []Layout{
			{SPN: 171, Name: FieldAmbientTemperature, StartBit: 0, BitLength: 8, Resolution: 0.5, Unit: "degC"},
			{SPN: 172, Name: FieldAirInletTemperature, StartBit: 8, BitLength: 8, Resolution: 0.5, Unit: "degC"},
		},
	},
}

// DefaultTable returns a copy of the built-in layout table.
func DefaultTable() Table {
	return defaultTable.Clone()
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for pgn, group := range t {
		group.SPNs = append([]Layout(nil), group.SPNs...)
		out[pgn] = group
	}
	return out
}

// Lookup returns a copy of the parameter group registered for pgn.
func (t Table) Lookup(pgn uint32) (ParameterGroup, bool) {
	group, ok := t[pgn]
	if !ok {
		return ParameterGroup{}, false
	}
	group.SPNs = append([]Layout(nil), group.SPNs...)
	return group, true
}

// Groups returns copies of all parameter groups ordered by PGN.
func (t Table) Groups() []ParameterGroup {
	out := make([]ParameterGroup, 0, len(t))
	for pgn := range t {
		group, _ := t.Lookup(pgn)
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PGN < out[j].PGN })
	return out
}

// Known reports whether the default table has a layout for pgn.
func Known(pgn uint32) bool {
	_, ok := defaultTable[pgn]
	return ok
}
