// Copyright (c) 2013, 2014 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AmountUnit describes a method of converting an Amount to something other
// than the base unit of the chain's native asset. The value of the
// AmountUnit is the exponent component of the decadic multiple to convert
// from an amount in whole coins to an amount counted in units.
type AmountUnit int

// These constants define various units used when describing a monetary
// amount. The base unit (Amount itself) is one millionth of a coin, per
// the COIN constant in const.go.
const (
	AmountMegaBTX  AmountUnit = 6
	AmountKiloBTX  AmountUnit = 3
	AmountBTX      AmountUnit = 0
	AmountMilliBTX AmountUnit = -3
	AmountBase     AmountUnit = -6
)

// String returns the unit as a string. For recognized units, the SI prefix
// is used, or "base" for the base unit. For all unrecognized units,
// "1eN BTX" is returned, where N is the AmountUnit.
func (u AmountUnit) String() string {
	switch u {
	case AmountMegaBTX:
		return "MBTX"
	case AmountKiloBTX:
		return "kBTX"
	case AmountBTX:
		return "BTX"
	case AmountMilliBTX:
		return "mBTX"
	case AmountBase:
		return "base"
	default:
		return "1e" + strconv.FormatInt(int64(u), 10) + " BTX"
	}
}

// Amount represents the base monetary unit of the chain. A single Amount is
// equal to 1e-6 of a whole coin (see COIN in const.go).
type Amount int64

// round converts a floating point number, which may or may not be
// representable as an integer, to the Amount integer type by rounding to
// the nearest integer.
func round(f float64) Amount {
	if f < 0 {
		return Amount(f - 0.5)
	}
	return Amount(f + 0.5)
}

// NewAmount creates an Amount from a floating point value representing some
// value in whole coins. NewAmount errors if f is NaN or +-Infinity, but does
// not check that the amount is within MAX_MONEY as f may not refer to an
// amount at a single moment in time.
func NewAmount(f float64) (Amount, error) {
	switch {
	case math.IsNaN(f):
		fallthrough
	case math.IsInf(f, 1):
		fallthrough
	case math.IsInf(f, -1):
		return 0, errors.New("invalid amount")
	}
	return round(f * COIN), nil
}

// ToUnit converts a monetary amount counted in base units to a floating
// point value representing an amount in the given unit.
func (a Amount) ToUnit(u AmountUnit) float64 {
	return float64(a) / math.Pow10(int(u+6))
}

// ToBTX is the equivalent of calling ToUnit with AmountBTX.
func (a Amount) ToBTX() float64 {
	return a.ToUnit(AmountBTX)
}

// Format formats a monetary amount counted in base units as a string for a
// given unit.
func (a Amount) Format(u AmountUnit) string {
	units := " " + u.String()
	formatted := strconv.FormatFloat(a.ToUnit(u), 'f', -int(u+6), 64)

	if u == AmountBTX {
		if strings.Contains(formatted, ".") {
			return fmt.Sprintf("%.6f%s", a.ToUnit(u), units)
		}
	}
	return formatted + units
}

// String is the equivalent of calling Format with AmountBTX.
func (a Amount) String() string {
	return a.Format(AmountBTX)
}

// MulF64 multiplies an Amount by a floating point value. Useful for fee
// percentage calculations.
func (a Amount) MulF64(f float64) Amount {
	return round(float64(a) * f)
}
