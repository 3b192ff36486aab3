// Package monitor implements the per-node protocol client: one TCP round
// trip against one livestatus endpoint.
//
// The exchange is deliberately simple and unforgiving:
//
//  1. Connect, bounded by a fixed 3 second deadline.
//  2. Write the request text and half-close the write side, which is how a
//     line-oriented livestatus peer learns the request is complete.
//  3. Read exactly 16 header bytes: "<status> <length>\n" padded with
//     spaces to fill the width.
//  4. Read exactly <length> body bytes in bounded chunks.
//
// There is no retry, no streaming, and no cancellation mid-flight. The only
// timeout is the connect deadline: a peer that accepts the connection and
// then never answers will block the caller indefinitely. That is a known,
// accepted limitation of the protocol client; bounding it belongs to the
// caller, not here.
//
// Failures are classified into a closed set of kinds (see ErrorKind) so the
// orchestration layer can key per-node errors without string matching.
package monitor
