package handlers

import (
	"errors"
	"io"
	"net/http"

	"petcare/services/booking"
	"petcare/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request logger set by middleware.RequestLogger, or the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// statusFor maps error kinds onto HTTP statuses. Client-side kinds all answer 400; the
// body's error.kind keeps them apart.
func statusFor(kind booking.Kind) int {
	switch kind {
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindValidation, booking.KindConflict, booking.KindExpired:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	var e *booking.Error
	if !errors.As(err, &e) {
		e = booking.ServerError(err, "unexpected error")
	}
	message := e.Message
	if e.Kind == booking.KindServer {
		getLogger(c).Error("request failed", zap.Error(err))
		message = "Internal server error"
	}
	utils.JSONError(c, statusFor(e.Kind), message, &utils.ErrorBody{
		Kind:   e.Kind.String(),
		Code:   e.Code,
		Fields: e.Fields,
	})
}

// bindJSON decodes the body into req, answering 400 itself on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	return bindBody(c, req, false)
}

// bindOptionalJSON is bindJSON for endpoints where the body may be absent.
// Chunked requests report no length, so emptiness is judged by the decoder.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	return bindBody(c, req, true)
}

func bindBody(c *gin.Context, req interface{}, optional bool) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", &utils.ErrorBody{
			Kind: booking.KindValidation.String(),
			Code: "invalid_body",
		})
		return false
	}
	return true
}
