package logging

import (
	"fmt"
	"io"

	"github.com/Graylog2/go-gelf/gelf"
)

// ConnectGraylog dials a GELF/UDP endpoint for shipping log records to
// Graylog. The returned writer is safe to hand to SlogManager.Setup.
func ConnectGraylog(address string) (io.Writer, error) {
	writer, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("dialing graylog at %s: %w", address, err)
	}
	return writer, nil
}
