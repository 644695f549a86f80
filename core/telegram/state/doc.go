// Package state keeps per-user conversation sessions in memory.
// Sessions expire after a TTL so abandoned flows fall back to idle.
package state
