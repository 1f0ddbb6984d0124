// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonus

import (
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/reverts"
)

// PayloadLength is the width of an encoded GYSR amount: one big-endian uint256 word.
const PayloadLength = 32

var errMalformedPayload = reverts.Newf(reverts.InvalidArgument, "gysr payload must be empty or %d bytes", PayloadLength)

// DecodeGysr reads the amount of GYSR attached to a call. An empty payload spends nothing.
func DecodeGysr(data []byte) (*uint256.Int, error) {
	if len(data) == 0 {
		return new(uint256.Int), nil
	}
	if len(data) != PayloadLength {
		return nil, errMalformedPayload
	}
	return new(uint256.Int).SetBytes32(data), nil
}

// EncodeGysr packs a GYSR amount. A nil or zero amount encodes to an empty payload.
func EncodeGysr(amount *uint256.Int) []byte {
	if amount == nil || amount.IsZero() {
		return nil
	}
	word := amount.Bytes32()
	return word[:]
}
