// Package stream provides the plumbing behind types.ChunkSource: a bounded
// producer/consumer queue, the degenerate whitespace splitter, and readers for
// the two wire framings the bundled backends use (Server-Sent Events and
// newline-delimited JSON).
//
// A backend hands Produce a function that pushes fragments through emit. The
// queue holds at most the configured number of fragments, so a slow consumer
// throttles the producer instead of growing memory.
//
//	src := stream.Produce(ctx, 0, func(ctx context.Context, emit stream.EmitFunc) error {
//		for _, part := range parts {
//			if err := emit(part); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
//	defer src.Close()
//	for {
//		text, err := src.Next(ctx)
//		if err == io.EOF {
//			break
//		}
//		...
//	}
package stream
