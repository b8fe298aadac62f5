/*
Package scope implements the acquisition-to-display signal pipeline of a
virtual oscilloscope. It turns an unbounded, irregularly-chunked stream of
raw samples into fixed-length frames suitable for plotting and scalar
measurement.

Concept

The pipeline has three stages:

	Source - the origin of raw sample chunks;
	Channel - the streaming frame assembler;
	Sink - the consumer of emitted frames and measurements;

Sources push chunks of arbitrary size at arbitrary intervals. A Channel
buffers incoming samples in a bounded look-ahead buffer, searches it for a
trigger edge and emits fixed-length frames, falling back to free-run when
no usable edge is found so the display is never frozen. A Channel can be
switched into frequency mode, where it consumes non-overlapping blocks and
emits windowed magnitude spectra instead of time fragments.

Channels and measurements fan their output out through a synchronous
publish/subscribe contract:

	ch, _ := scope.NewChannel(scope.WithName("ch1"))
	unsub := ch.OnFrame(func(f scope.Frame) {
		// f is an immutable snapshot, safe to keep.
	})
	defer unsub()

	rms := scope.NewMeasurement(ch, scope.RMS)
	defer rms.Unbind()

Sources deliver chunks by calling Feed, the single streaming entry point:

	src.Subscribe(ch.Feed)

Concurrency

Feed must be called from a single producer goroutine. Configuration calls
may originate from any goroutine; they share a lock with Feed, so a config
change briefly blocks the stream but is never partially applied. Emitted
frames are freshly allocated snapshots, never views into live buffers.
*/
package scope
