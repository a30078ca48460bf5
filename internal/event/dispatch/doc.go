// Package dispatch runs event handlers for the event bus.
//
// A Runner calls each handler synchronously in the caller's goroutine,
// times it and classifies the outcome. With recovery enabled a panic becomes
// a Panicked result; without it the panic unwinds to the caller exactly as a
// plain function call would.
//
//	r := dispatch.NewRunner(
//	    dispatch.Recover(true),
//	    dispatch.OnPanic(func(subject any, p *dispatch.Panic) {
//	        logger.Error("handler panicked", zap.Any("value", p.Value))
//	    }),
//	)
//	res := r.Run(env, func() error { return handle(env) })
//	if !res.OK() {
//	    ...
//	}
package dispatch
