// Package demoicd holds the endpoint/topic descriptors shared by
// cmd/icddeviced and cmd/icdhostctl. In the original design these would
// live in a crate both the device and host firmware import; this module
// has no such shared-crate boundary, so both binaries import this small
// package instead of redeclaring the same descriptors twice (spec.md 3:
// a key is only meaningful if both ends derive it from the same path and
// schema).
package demoicd

import "github.com/sandia-minimega/icdrpc/v2/pkg/icd"

// UptimeEndpoint reports how long icddeviced has held the current
// connection open, in seconds.
var UptimeEndpoint = icd.NewEndpoint("icddeviced/uptime", struct{}{}, uint32(0))

// HeartbeatTopic carries a monotonically increasing sequence number, one
// message per second, for as long as a connection is open.
var HeartbeatTopic = icd.NewTopic("icddeviced/heartbeat", icd.ToClient, uint32(0))
