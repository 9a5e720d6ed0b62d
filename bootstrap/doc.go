// Package bootstrap runs the sidecar process.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(srv)
//	app.RegisterComponent(coord)
//	app.OnReady(func(ctx context.Context) error { ... })
//	err = app.Run(ctx)
//
// Components start in registration order and stop in reverse order once
// SIGINT or SIGTERM arrives or the context passed to Run is canceled.
package bootstrap
