// Package player emulates the SoundCloud widget SDK in process.
//
// [Runtime] plays the role of the page's script loader: loading the widget script (optionally downloading it)
// installs an [API], the widget factory. Widgets only respond to what they are told: [Widget.Emit] delivers a raw
// player event and [Widget.Flush] answers current-sound queries. [Clock] is a virtual scheduler so polling can be
// driven deterministically, and [Session] replays JSON-lines scripts against the widgets of a page.
package player
