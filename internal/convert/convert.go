// Package convert converts values between units of one measurement
// category. Every unit is defined by how it maps onto its category's base
// unit: base = value*Scale + Offset.
package convert

import (
	"fmt"
	"strings"

	"github.com/dukerupert/sutradhaar/internal/apperr"
)

type Unit struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Scale  float64 `json:"-"`
	Offset float64 `json:"-"`
}

func (u Unit) toBase(v float64) float64   { return v*u.Scale + u.Offset }
func (u Unit) fromBase(v float64) float64 { return (v - u.Offset) / u.Scale }

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Units []Unit `json:"units"`
}

func (c Category) unit(id string) (Unit, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, u := range c.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

var categories = []Category{
	{ID: "length", Name: "Length", Units: []Unit{
		{ID: "m", Name: "Meter", Symbol: "m", Scale: 1},
		{ID: "km", Name: "Kilometer", Symbol: "km", Scale: 1000},
		{ID: "cm", Name: "Centimeter", Symbol: "cm", Scale: 0.01},
		{ID: "mm", Name: "Millimeter", Symbol: "mm", Scale: 0.001},
		{ID: "mi", Name: "Mile", Symbol: "mi", Scale: 1609.344},
		{ID: "yd", Name: "Yard", Symbol: "yd", Scale: 0.9144},
		{ID: "ft", Name: "Foot", Symbol: "ft", Scale: 0.3048},
		{ID: "in", Name: "Inch", Symbol: "in", Scale: 0.0254},
		{ID: "nmi", Name: "Nautical mile", Symbol: "nmi", Scale: 1852},
	}},
	{ID: "mass", Name: "Mass", Units: []Unit{
		{ID: "kg", Name: "Kilogram", Symbol: "kg", Scale: 1},
		{ID: "g", Name: "Gram", Symbol: "g", Scale: 0.001},
		{ID: "mg", Name: "Milligram", Symbol: "mg", Scale: 1e-6},
		{ID: "t", Name: "Tonne", Symbol: "t", Scale: 1000},
		{ID: "lb", Name: "Pound", Symbol: "lb", Scale: 0.45359237},
		{ID: "oz", Name: "Ounce", Symbol: "oz", Scale: 0.028349523125},
		{ID: "st", Name: "Stone", Symbol: "st", Scale: 6.35029318},
	}},
	{ID: "temperature", Name: "Temperature", Units: []Unit{
		{ID: "c", Name: "Celsius", Symbol: "°C", Scale: 1},
		{ID: "f", Name: "Fahrenheit", Symbol: "°F", Scale: 5.0 / 9.0, Offset: -32 * 5.0 / 9.0},
		{ID: "k", Name: "Kelvin", Symbol: "K", Scale: 1, Offset: -273.15},
	}},
	{ID: "volume", Name: "Volume", Units: []Unit{
		{ID: "l", Name: "Liter", Symbol: "L", Scale: 1},
		{ID: "ml", Name: "Milliliter", Symbol: "mL", Scale: 0.001},
		{ID: "m3", Name: "Cubic meter", Symbol: "m³", Scale: 1000},
		{ID: "gal", Name: "US gallon", Symbol: "gal", Scale: 3.785411784},
		{ID: "qt", Name: "US quart", Symbol: "qt", Scale: 0.946352946},
		{ID: "cup", Name: "US cup", Symbol: "cup", Scale: 0.2365882365},
		{ID: "floz", Name: "US fluid ounce", Symbol: "fl oz", Scale: 0.0295735295625},
	}},
	{ID: "area", Name: "Area", Units: []Unit{
		{ID: "m2", Name: "Square meter", Symbol: "m²", Scale: 1},
		{ID: "km2", Name: "Square kilometer", Symbol: "km²", Scale: 1e6},
		{ID: "ha", Name: "Hectare", Symbol: "ha", Scale: 1e4},
		{ID: "acre", Name: "Acre", Symbol: "ac", Scale: 4046.8564224},
		{ID: "ft2", Name: "Square foot", Symbol: "ft²", Scale: 0.09290304},
		{ID: "in2", Name: "Square inch", Symbol: "in²", Scale: 0.00064516},
	}},
	{ID: "speed", Name: "Speed", Units: []Unit{
		{ID: "mps", Name: "Meter per second", Symbol: "m/s", Scale: 1},
		{ID: "kmh", Name: "Kilometer per hour", Symbol: "km/h", Scale: 1000.0 / 3600.0},
		{ID: "mph", Name: "Mile per hour", Symbol: "mph", Scale: 0.44704},
		{ID: "kn", Name: "Knot", Symbol: "kn", Scale: 1852.0 / 3600.0},
	}},
	{ID: "time", Name: "Time", Units: []Unit{
		{ID: "s", Name: "Second", Symbol: "s", Scale: 1},
		{ID: "ms", Name: "Millisecond", Symbol: "ms", Scale: 0.001},
		{ID: "min", Name: "Minute", Symbol: "min", Scale: 60},
		{ID: "h", Name: "Hour", Symbol: "h", Scale: 3600},
		{ID: "d", Name: "Day", Symbol: "d", Scale: 86400},
		{ID: "wk", Name: "Week", Symbol: "wk", Scale: 604800},
	}},
	{ID: "data", Name: "Data", Units: []Unit{
		{ID: "b", Name: "Byte", Symbol: "B", Scale: 1},
		{ID: "bit", Name: "Bit", Symbol: "bit", Scale: 0.125},
		{ID: "kb", Name: "Kilobyte", Symbol: "kB", Scale: 1e3},
		{ID: "mb", Name: "Megabyte", Symbol: "MB", Scale: 1e6},
		{ID: "gb", Name: "Gigabyte", Symbol: "GB", Scale: 1e9},
		{ID: "kib", Name: "Kibibyte", Symbol: "KiB", Scale: 1 << 10},
		{ID: "mib", Name: "Mebibyte", Symbol: "MiB", Scale: 1 << 20},
		{ID: "gib", Name: "Gibibyte", Symbol: "GiB", Scale: 1 << 30},
	}},
}

// Categories lists every category with its units.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{ID: c.ID, Name: c.Name, Units: append([]Unit{}, c.Units...)}
	}
	return out
}

func lookup(category string) (Category, bool) {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, c := range categories {
		if c.ID == category {
			return c, true
		}
	}
	return Category{}, false
}

// Units lists the units of one category.
func Units(category string) ([]Unit, error) {
	c, ok := lookup(category)
	if !ok {
		return nil, apperr.Validation("list units", fmt.Sprintf("unknown category %q", category))
	}
	return append([]Unit{}, c.Units...), nil
}

// Convert converts value from one unit to another of the same category.
func Convert(category, from, to string, value float64) (float64, error) {
	c, ok := lookup(category)
	if !ok {
		return 0, apperr.Validation("convert", fmt.Sprintf("unknown category %q", category))
	}
	src, ok := c.unit(from)
	if !ok {
		return 0, apperr.Validation("convert", fmt.Sprintf("unknown %s unit %q", c.ID, from))
	}
	dst, ok := c.unit(to)
	if !ok {
		return 0, apperr.Validation("convert", fmt.Sprintf("unknown %s unit %q", c.ID, to))
	}
	if src.ID == dst.ID {
		return value, nil
	}
	return dst.fromBase(src.toBase(value)), nil
}
