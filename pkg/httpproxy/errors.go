package httpproxy

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"mercator-hq/relay/pkg/perrors"
)

// writeErrorResponse makes a best-effort attempt to write a status-coded
// response for err before the connection closes. Kinds with no natural
// HTTP status (StatusClass() == 0) mean the connection is already
// unusable — nothing is written. Failures writing the response itself
// are ignored: the caller closes the connection regardless.
func writeErrorResponse(client net.Conn, err error, via string) {
	var perr *perrors.Error
	status := http.StatusInternalServerError
	if errors.As(err, &perr) {
		if sc := perr.Kind.StatusClass(); sc != 0 {
			status = sc
		} else {
			return
		}
	}

	body := fmt.Sprintf("%d %s\n", status, http.StatusText(status))
	resp := &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:          http.NoBody,
		ContentLength: int64(len(body)),
		Close:         true,
	}
	appendVia(resp.Header, "1.1", via)
	resp.Header.Set("Connection", "close")

	_ = resp.Write(client)
	_, _ = client.Write([]byte(body))
}
