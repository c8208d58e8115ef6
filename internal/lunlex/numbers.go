// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunlex

import "strconv"

// ParseNumber converts a decimal numeric constant
// (as scanned for a [NumeralToken]) to a 64-bit floating-point number.
// Any error returned will be of type [*strconv.NumError].
func ParseNumber(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ParseHexNumber converts a hexadecimal numeric constant
// (as scanned for a [HexNumeralToken], including the "0x" prefix)
// to a 64-bit floating-point number.
// Values too large for a uint64 saturate rather than error,
// matching the wrap-free reading of a constant that is
// immediately converted to floating point.
// Any error returned will be of type [*strconv.NumError].
func ParseHexNumber(s string) (float64, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	x, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return float64(^uint64(0)), nil
		}
		return 0, err
	}
	return float64(x), nil
}
