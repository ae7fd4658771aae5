package error

import (
	"errors"
	"fmt"
)

const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// ConfigurationError indicates that the required settings are absent or cannot be parsed.
// It is the only error which aborts a run.
type ConfigurationError struct {
	Reason string
	Key    string
	Err    error
}

func (c *ConfigurationError) Error() string {
	if c.Err != nil {
		return fmt.Sprintf("configuration %s '%s': %s", c.Reason, c.Key, c.Err)
	}
	return fmt.Sprintf("configuration %s '%s'", c.Reason, c.Key)
}

func (c *ConfigurationError) Unwrap() error {
	return c.Err
}

// APIError is returned for any non-2xx response (StatusCode > 0) or a failed round trip (StatusCode == 0).
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (a *APIError) Error() string {
	if a.StatusCode == 0 {
		return fmt.Sprintf("%s %s failed: %s", a.Method, a.Endpoint, a.Err)
	}
	return fmt.Sprintf("%s %s failed with '%d' HTTP response code: %s", a.Method, a.Endpoint, a.StatusCode, a.Body)
}

func (a *APIError) Unwrap() error {
	return a.Err
}

type InvalidMethodError struct {
	Method string
}

func (i *InvalidMethodError) Error() string {
	return fmt.Sprintf("invalid request method '%s': only GET and POST are supported", i.Method)
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsAPIError(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

func IsInvalidMethodError(err error) bool {
	var target *InvalidMethodError
	return errors.As(err, &target)
}
