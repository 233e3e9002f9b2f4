// Package xui drives the compositor: it owns a backend, a target surface,
// a Lua scene and a presenter, and turns them into a stream of frames.
//
// # Basic Usage
//
//	e, err := xui.NewFromFile("/path/to/xui.toml", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := e.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer e.Stop()
//	<-e.Done()
//
// # Configuration Sources
//
//   - Disk file: use [NewFromFile]
//   - Embedded FS: use [NewFromFS]
//   - io.Reader: use [NewFromReader]
//   - A ready [config.Config]: use [New]
//
// # Frames
//
// Every tick the engine asks the scene for the frame's commands and runs
// them through the compositor, which presents the result. A scene error
// does not stop the engine: the last good frame is shown again and the
// error reaches the [ErrorHandler]. After repeated failures the scene is
// skipped for a while; see [CircuitBreaker].
//
// Set Options.Frames to stop after a fixed number of frames, which is how
// the png sink renders a clip.
//
// # Error Handling
//
//	e.SetErrorHandler(func(err error) {
//		log.Printf("xui error: %v", err)
//	})
//
// The handler is called asynchronously; do not block in it.
package xui
