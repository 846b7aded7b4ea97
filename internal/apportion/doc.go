// Package apportion implements highest-averages (divisor) seat allocation.
//
// Quotients are exact rationals (math/big) so rankings and ties never depend
// on floating point rounding. Equal quotients are resolved in favour of the
// lower party index, then the lower divisor rank.
package apportion
