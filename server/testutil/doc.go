// Package testutil provides a test HTTP server component for handler tests.
//
//	srv := testutil.NewComponent(func(s *server.Server) {
//	    api.New(coord, opts).Register(s.GinEngine())
//	})
//	testutil.T(t).Setup(srv)
//	resp, _ := http.Get(srv.BaseURL() + "/actuator/health")
package testutil
