// Package soundcloud translates the raw playback events of embedded SoundCloud widgets into analytics events.
//
// [Attach] wraps a player [Frame] in a [Widget] obtained from a [WidgetAPI] and binds six listeners (error,
// playProgress, play, pause, seek, finish). Each [Binding] keeps a [Tracks] collection keyed by title so that
// every action is reported at most once per play-through:
//   - "Playback started", "Playback resumed", "Playback paused"
//   - "Playback scrubbed" (once, only while playing)
//   - "Progress 1/4" through "Progress 4/4" (with " with scrubbing" after a seek)
//   - "Played in full" or "Played in full with scrubbing"
//   - "Error"
//
// The widget reports its current sound asynchronously. While progress ticks arrive the binding keeps at most one
// current-sound query in flight; when the reported id changes the collection is discarded.
//
// A bound frame carries the [MarkerAttr] attribute set to its src, so binding it twice returns [ErrAlreadyBound].
// [Binding.Dispose] removes the listeners and the marker.
package soundcloud
