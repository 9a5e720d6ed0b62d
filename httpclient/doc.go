// Package httpclient is the HTTP transport used by registry backends.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8761/eureka/apps/",
//	    Timeout: 10 * time.Second,
//	})
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPut,
//	    Path:   "ORDERS/h1:orders:8080",
//	})
//
// Non-2xx responses come back as *Error together with the Response, so
// callers can branch on IsNotFound and still inspect the status code.
package httpclient
