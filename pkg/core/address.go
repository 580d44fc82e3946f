package core

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/tonkeeper/tongo/ton"
)

// ParseAddress accepts both the raw "workchain:hex" form and the base64
// user-friendly form. Responses always carry the raw form back.
func ParseAddress(s string) (ton.AccountID, error) {
	a, err := ton.ParseAccountID(s)
	if err != nil {
		return ton.AccountID{}, fmt.Errorf("%w: invalid account address %q", ErrInvalidArgument, s)
	}
	return a, nil
}

// ParseHash accepts a 64-char hex hash or its base64 (std or url) form.
func ParseHash(s string) (ton.Bits256, error) {
	var h ton.Bits256
	if len(s) == 64 {
		b, err := hex.DecodeString(s)
		if err == nil {
			copy(h[:], b)
			return h, nil
		}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.URLEncoding.DecodeString(s)
	}
	if err != nil || len(b) != 32 {
		return h, fmt.Errorf("%w: invalid hash %q", ErrInvalidArgument, s)
	}
	copy(h[:], b)
	return h, nil
}
