package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXRayMiddleware_ClosesSegmentWhenHandlerPanics(t *testing.T) {
	var seg *xray.Segment
	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(XRayMiddleware("vitalnotes-console"))
	e.GET("/boom", func(c echo.Context) error {
		seg = xray.GetSegment(c.Request().Context())
		panic("handler exploded")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, seg)
	assert.False(t, seg.InProgress)
}

func TestXRayMiddleware_ClosesSegmentWithHandlerError(t *testing.T) {
	var seg *xray.Segment
	handlerErr := errors.New("upstream failed")
	e := echo.New()
	e.Use(XRayMiddleware("vitalnotes-console"))
	e.GET("/fail", func(c echo.Context) error {
		seg = xray.GetSegment(c.Request().Context())
		return handlerErr
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.NotNil(t, seg)
	assert.False(t, seg.InProgress)
	assert.True(t, seg.Fault || seg.Error)
}
