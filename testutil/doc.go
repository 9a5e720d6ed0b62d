// Package testutil holds test components shared across the sidecar's
// packages.
//
// A TestComponent is a component.Component that can also be reset between
// cases. T wraps testing.T so a component started in a test is stopped when
// the test ends:
//
//	reg := testutil.NewFakeEureka()
//	testutil.T(t).Setup(reg)
//	client := eureka.NewClient(eureka.Config{URL: reg.URL()}, log)
package testutil
