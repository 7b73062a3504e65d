// Package chat reconstructs an ordered, deduplicated, semantically typed
// timeline from an archived live-stream chat replay feed.
//
// One replay record classifies into zero or one timeline entries. The Session
// holds all cross-event state: the seen-item dedup set, the deleted-id set,
// author timeout cutoffs, and the poll table. The source feed is assumed
// chronological except for corrective actions (deletions, bans, reordered
// poll updates), all of which are applied idempotently so duplicated or
// reordered records can never fork the reconstructed state.
package chat
