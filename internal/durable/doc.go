// Package durable stores small string values in a pair of files so that a
// power cut during a write never loses the previous value.
//
// The two slots are "a-<name>" (odd serials) and "b-<name>" (even serials).
// Each file holds the value followed by a twelve byte trailer
// "\n<#########>" with a zero-padded serial. Readers accept only slots whose
// trailer is intact and pick the newer serial.
package durable
