// Package canvas provides the drawing surface of a remote display and the
// bridge that turns pointer, keyboard and touch input on that surface into
// display events.
//
// A Surface holds the RGBA pixels of the last frame drawn into it:
//
//	s := canvas.NewSurface(640, 480)
//	s.Draw(payload, protocol.FormatBGR32)
//	png.Encode(w, s.Image())
//
// A Bridge forwards input to a Sink, normally a client.Display:
//
//	b := canvas.NewBridge(s, display)
//	b.MouseDown(0, canvas.Point{X: 10, Y: 20}, canvas.Modifiers{})
//
// Coordinates passed to the bridge are client coordinates. They are made
// relative to the surface origin (see Surface.SetOrigin) and rounded.
package canvas
