// Package version provides the protocol version string exchanged at
// connection time, and its comparison logic. internal/ron hand-rolled
// its own majorVersion/minorVersion/patchVersion parser for this; here we
// use blang/semver instead, since the distilled spec doesn't dictate a
// specific format and the pack carries a real semver library.
package version

import "github.com/blang/semver"

// Protocol is the wire-protocol version this build implements. Bumping
// the minor component signals backward-compatible additions (e.g. a new
// reserved topic); bumping major signals a wire-breaking change.
var Protocol = semver.MustParse("1.0.0")

// Compatible reports whether a peer advertising peerVersion can
// interoperate with this build: same major version, any minor/patch.
func Compatible(peerVersion string) bool {
	peer, err := semver.Parse(peerVersion)
	if err != nil {
		return false
	}
	return peer.Major == Protocol.Major
}
