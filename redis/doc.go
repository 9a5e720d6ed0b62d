// Package redis wraps go-redis for the sidecar's Redis-backed instance source.
//
//	comp := redis.NewComponent(cfg, log)
//	app.RegisterComponent(comp)
//	...
//	doc := redis.NewDocument[[]instance.ServiceInstance](comp.Client(), "instances")
//	list, found, err := doc.Get(ctx)
package redis
