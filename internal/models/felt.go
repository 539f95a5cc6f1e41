package models

import (
	"encoding/hex"
	"errors"
	"strings"
)

// MaxShortString is the number of bytes a felt252 short string can carry.
const MaxShortString = 31

var ErrShortStringTooLong = errors.New("short string exceeds 31 bytes")

// FeltToString decodes a Cairo short string held in a hex felt. Values that
// are not hex are returned unchanged so already-decoded names pass through.
func FeltToString(felt string) string {
	raw := strings.TrimSpace(felt)
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		return raw
	}
	raw = strings.TrimLeft(raw[2:], "0")
	if raw == "" {
		return ""
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return felt
	}
	return string(b)
}

// StringToFelt encodes s as a Cairo short string felt.
func StringToFelt(s string) (string, error) {
	if len(s) > MaxShortString {
		return "", ErrShortStringTooLong
	}
	if s == "" {
		return "0x0", nil
	}
	return "0x" + hex.EncodeToString([]byte(s)), nil
}
