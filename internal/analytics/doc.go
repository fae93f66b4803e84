// Package analytics dispatches tracking events to whichever Google Analytics tracker the environment provides.
//
// # Detection
//
// A [Dispatcher] probes its [Environment] once, on the first tracked event, in a fixed order:
//   - gtag: the global site tag function ([GlobalSiteTag])
//   - ga: the analytics.js command queue function ([Analytics])
//   - _gaq: the legacy ga.js queue ([Legacy])
//
// The first tracker found is cached for the lifetime of the dispatcher. When none is found tracking is disabled
// and every later call is a no-op until [Dispatcher.Reset].
//
// # Environment
//
// The environment is injected rather than read from ambient globals. [Globals] is the plain implementation used by
// tests and by [NewEnvironment], which wires each tracker shape to a real transport:
//   - gtag → [MeasurementProtocol] (GA4 /mp/collect)
//   - ga → [Collect] (Universal Analytics /collect)
//   - _gaq → [WriterQueue] (one line per pushed command)
//
// # Transport
//
// HTTP hits are handed to a [Collector], which sends them from a single worker goroutine throttled by a
// [rate.Limiter]. Enqueueing never blocks: when the buffer is full the hit is dropped. There are no retries.
package analytics
