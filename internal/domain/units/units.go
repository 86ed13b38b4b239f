// Package units converts quantities between units of the same measurement family.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidUnitFamily is returned when a conversion crosses measurement families.
var ErrInvalidUnitFamily = errors.New("incompatible unit families")

// ErrUnknownUnit is returned for units outside the supported vocabulary.
var ErrUnknownUnit = errors.New("unknown unit")

// Unit is a measurement unit symbol.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Tonne      Unit = "t"
	Millilitre Unit = "ml"
	Litre      Unit = "L"
)

// Family groups units that convert into each other.
type Family string

const (
	Mass   Family = "mass"
	Volume Family = "volume"
)

type unitInfo struct {
	family Family
	// toBase multiplies a value in this unit into the family base unit.
	toBase float64
}

var vocabulary = map[Unit]unitInfo{
	Gram:       {family: Mass, toBase: 1},
	Kilogram:   {family: Mass, toBase: 1_000},
	Tonne:      {family: Mass, toBase: 1_000_000},
	Millilitre: {family: Volume, toBase: 1},
	Litre:      {family: Volume, toBase: 1_000},
}

var baseUnits = map[Family]Unit{
	Mass:   Gram,
	Volume: Millilitre,
}

// Parse normalises a unit symbol ("KG", "l", " ml ") into a known Unit.
func Parse(s string) (Unit, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "g":
		return Gram, nil
	case "kg":
		return Kilogram, nil
	case "t":
		return Tonne, nil
	case "ml":
		return Millilitre, nil
	case "l":
		return Litre, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// FamilyOf returns the measurement family of u.
func FamilyOf(u Unit) (Family, error) {
	info, ok := vocabulary[u]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, u)
	}
	return info.family, nil
}

// BaseUnit returns the unit every quantity of the family is stored in internally.
func BaseUnit(f Family) Unit {
	return baseUnits[f]
}

// SameFamily reports whether a and b are known units of one family.
func SameFamily(a, b Unit) bool {
	fa, errA := FamilyOf(a)
	fb, errB := FamilyOf(b)
	return errA == nil && errB == nil && fa == fb
}

// Convert expresses value, given in from, in the unit to.
func Convert(value float64, from, to Unit) (float64, error) {
	src, ok := vocabulary[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	dst, ok := vocabulary[to]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}
	if src.family != dst.family {
		return 0, fmt.Errorf("%w: %s (%s) to %s (%s)", ErrInvalidUnitFamily, from, src.family, to, dst.family)
	}
	if from == to {
		return value, nil
	}
	return value * src.toBase / dst.toBase, nil
}

// ToBase converts value into the base unit of its family.
func ToBase(value float64, from Unit) (float64, Unit, error) {
	family, err := FamilyOf(from)
	if err != nil {
		return 0, "", err
	}
	base := BaseUnit(family)
	converted, err := Convert(value, from, base)
	if err != nil {
		return 0, "", err
	}
	return converted, base, nil
}
