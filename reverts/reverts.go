// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the deterministic, caller-facing failures of the reward engine.
// A revert is always raised before any state is committed.
package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert.
type Kind uint8

const (
	InvalidArgument Kind = iota + 1
	CapacityExceeded
	InsufficientBalance
	Unauthorized
	Reentrant
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case CapacityExceeded:
		return "capacity exceeded"
	case InsufficientBalance:
		return "insufficient balance"
	case Unauthorized:
		return "unauthorized"
	case Reentrant:
		return "reentrant call"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	var ve *ErrRevert
	if !errors.As(err, &ve) {
		return false
	}
	return ve.kind == kind
}
