// Package server exposes SoundCloud analytics bindings to live pages over HTTP.
//
// # Routing
//
// [BasicRouter] registers method-qualified [http.ServeMux] patterns and wraps each route in the [Middleware] added
// before it. The first middleware added is the outermost one.
//
// # Embeds
//
// A page registers each embedded player with its page URL and player src. The [Registry] creates a stand-in frame
// for it, binds analytics through an emulated widget and returns an id. The page then posts raw player events,
// which the widget delivers to the binding; current-sound queries are answered with the sound reported by the most
// recent event. Registering the same page and src twice returns 409 until the first embed is deleted.
//
// Event posts are rate limited per embed with [KeyedLimiter].
//
// # Handlers
//
// A [Handler] lists its own routes, so [EmbedHandler] owns every /embeds pattern and dispatches on the matched one.
package server
