package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// decompressRequests rewrites gzip-encoded request bodies into plain streams
// before the handlers decode them. Payloads that are not valid gzip are
// rejected with the handlers' JSON error shape, and the inflated stream is
// capped at requestBodyMaxSize so a compressed body cannot balloon past the
// limit the handlers enforce on plain ones.
func decompressRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !requestIsGzipped(req.Header) {
				return next(c)
			}

			raw := req.Body
			zr, err := gzip.NewReader(raw)
			if err != nil {
				_ = raw.Close()
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid gzip body"})
			}

			req.Body = &inflatedBody{
				reader: io.LimitReader(zr, requestBodyMaxSize),
				gz:     zr,
				raw:    raw,
			}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)

			return next(c)
		}
	}
}

func requestIsGzipped(h http.Header) bool {
	for _, enc := range strings.Split(h.Get(echo.HeaderContentEncoding), ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

// inflatedBody serves the capped decompressed stream and closes both the gzip
// reader and the network body underneath it.
type inflatedBody struct {
	reader io.Reader
	gz     *gzip.Reader
	raw    io.Closer
}

func (b *inflatedBody) Read(p []byte) (int, error) { return b.reader.Read(p) }

func (b *inflatedBody) Close() error {
	err := b.gz.Close()
	if cerr := b.raw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
