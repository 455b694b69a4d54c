package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var (
			code int
			resp errorResponse
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			resp.Error = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			resp.Fields = make(map[string]string, len(origErr))
			for i, vErr := range origErr {
				msg := vErr.Translate(translator)
				resp.Fields[vErr.Field()] = msg
				if i == 0 {
					resp.Error = msg
				}
			}
			code = http.StatusBadRequest
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				resp.Fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					resp.Fields[fErr.Field] = fErr.Error
				}
			}
			resp.Error = origErr.Error()
			code = http.StatusBadRequest
		case *core.AuthError:
			code = http.StatusUnauthorized
			resp.Error = origErr.Error()
		case *core.ForbiddenError:
			code = http.StatusForbidden
			resp.Error = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			resp.Error = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			resp.Error = msg

			logger.Error(msg, errors.Wrap(err, msg), getContextClaims(ctx).identity())

			if ctx.Echo().Debug {
				resp.Error = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, resp)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
