package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DecompressRequestMiddleware unwraps gzip-encoded request bodies so
// the intent handlers always decode plain JSON. An invalid gzip
// payload is rejected with a 400 response.
func DecompressRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !gzipEncoded(req.Header.Get(echo.HeaderContentEncoding)) {
				return next(c)
			}

			body := req.Body
			gr, err := gzip.NewReader(body)
			if err != nil {
				_ = body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}

			req.Body = &decompressedBody{Reader: gr, inner: body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)

			return next(c)
		}
	}
}

func gzipEncoded(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

type decompressedBody struct {
	*gzip.Reader
	inner io.Closer
}

func (b *decompressedBody) Close() error {
	err := b.Reader.Close()
	if b.inner != nil {
		if cerr := b.inner.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
