package dxnet

import "fmt"

var (
	// ErrAuthentication means the site rejected the configured credentials.
	ErrAuthentication = fmt.Errorf("dxnet: authentication failed")
	// ErrSessionExpired means a page still asked for a login after a fresh
	// login within the same fetch.
	ErrSessionExpired = fmt.Errorf("dxnet: session expired")
	// ErrNetwork is any timeout, connection or unexpected status failure that
	// outlived the retries.
	ErrNetwork = fmt.Errorf("dxnet: network failure")
	// ErrUnavailable is returned on 503, the site may be under maintenance. It
	// matches ErrNetwork with errors.Is.
	ErrUnavailable = fmt.Errorf("%w: site unavailable (may be under maintenance)", ErrNetwork)
)
