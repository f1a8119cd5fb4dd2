package download

import "errors"

var (
	// ErrNoFileName is returned when the URL has no final path segment to name the file.
	ErrNoFileName = errors.New("URL has no file name")

	// ErrUnexpectedStatus is returned for responses outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrFileExists is returned when the target file exists and overwrite is false.
	ErrFileExists = errors.New("file already exists")

	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")
)
