package capture

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/gzip"
)

// buildWARCRecord renders a minimal single-response WARC/1.0 record for the
// captured page and gzips it, mirroring the teacher's gzip-the-payload
// idiom for compressed artifact bodies.
func buildWARCRecord(url, html string, status int, fetchedAt time.Time) ([]byte, error) {
	body := []byte(html)
	record := fmt.Sprintf(
		"WARC/1.0\r\n"+
			"WARC-Type: response\r\n"+
			"WARC-Target-URI: %s\r\n"+
			"WARC-Date: %s\r\n"+
			"Content-Type: application/http; msgtype=response\r\n"+
			"Content-Length: %d\r\n\r\n"+
			"HTTP/1.1 %d\r\n\r\n%s\r\n\r\n",
		url, fetchedAt.UTC().Format(time.RFC3339Nano), len(body), status, html,
	)

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	if _, err := w.Write([]byte(record)); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	return buf.Bytes(), nil
}
