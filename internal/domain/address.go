package domain

import "strings"

// NormalizeAddress canonicalizes an account address so that short and
// zero-padded spellings of the same address compare equal ("0x1" vs
// "0x00...01").
func NormalizeAddress(address string) string {
	trimmed := strings.ToLower(strings.TrimSpace(address))
	trimmed = strings.TrimPrefix(trimmed, "0x")
	trimmed = strings.TrimLeft(trimmed, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}
