// Package resilience groups the fault tolerance helpers used around the
// upstream news feed: a circuit breaker and retry with exponential backoff.
//
//	cb := circuitbreaker.New(circuitbreaker.NewsAPIConfig())
//	err := retry.WithBackoff(ctx, retry.NewsAPIConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) { return client.Do(req) })
//	    return err
//	})
package resilience
