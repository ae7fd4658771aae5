package grafana

import "time"

// Result is the outcome of a single API call.
type Result struct {
	Method   string
	Endpoint string
	Subject  string
	Payload  interface{}
	Response interface{}
	Err      error
	Duration time.Duration
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// WithSubject names what the call was about (e.g. data source or dashboard name).
func (r Result) WithSubject(subject string) Result {
	r.Subject = subject
	return r
}

func (r Result) Status() string {
	if r.Failed() {
		return "failed"
	}
	return "success"
}
