package service

import "fmt"

// InvalidAddressError is returned when the input does not parse as IPv4 or IPv6
// No lookup is attempted for such input
type InvalidAddressError struct {
	Input string
}

func (e *InvalidAddressError) Error() string {
	if e.Input == "" {
		return "missing IP address"
	}
	return fmt.Sprintf("%q is not a valid IPv4 or IPv6 address", e.Input)
}

// LookupUnavailableError is returned when the lookup service could not answer:
// network failure, timeout, non-success status or an unreadable body
type LookupUnavailableError struct {
	IP  string
	Err error
}

func (e *LookupUnavailableError) Error() string {
	return fmt.Sprintf("lookup of %s unavailable: %v", e.IP, e.Err)
}

func (e *LookupUnavailableError) Unwrap() error {
	return e.Err
}
