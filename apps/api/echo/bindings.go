package echoapi

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core/question"
)

var errInvalidID = echo.NewHTTPError(400, "invalid id")

// flexText accepts a JSON string or number and keeps its text, so that
// forms posting `"3"` and clients posting `3` log in the same way.
type flexText string

func (ft *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*ft = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ft = flexText(s)
	default:
		*ft = flexText(data)
	}
	return nil
}

// flexNumber is the flexText of the numeric login fields. A JSON number is
// truncated to an integer, and a zero or false counts as a missing field.
type flexNumber string

func (fn *flexNumber) UnmarshalJSON(data []byte) error {
	var ft flexText
	if err := ft.UnmarshalJSON(data); err != nil {
		return err
	}
	*fn = flexNumber(ft)

	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("false")):
		*fn = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		return nil // strings keep their text
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return nil
	}
	f, err := num.Float64()
	if err != nil || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	if f == 0 {
		*fn = ""
		return nil
	}
	*fn = flexNumber(strconv.FormatInt(int64(f), 10))
	return nil
}

type (
	LoginRequest struct {
		Grade      flexNumber `json:"grade"`
		ClassNum   flexNumber `json:"class_num"`
		StudentNum flexNumber `json:"student_num"`
		Name       string     `json:"name"`
		PIN        flexText   `json:"pin"`
	}

	AdminLoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	ContentRequest struct {
		Content string `json:"content"`
	}

	IDsRequest struct {
		IDs []int `json:"ids"`
	}

	SetPINsRequest struct {
		StudentIDs []int    `json:"student_ids"`
		PIN        flexText `json:"pin"`
	}

	GeneratePINsRequest struct {
		Target string `json:"target"`
	}

	TopicRequest struct {
		Topic string `json:"topic"`
	}

	// DateQuery is the optional `?date=` of the question listings.
	DateQuery struct {
		Date string `query:"date" validate:"omitempty,isodate"`
		Sort string `query:"sort"`
	}

	// RangeQuery is the optional `?start=&end=` of the exports.
	RangeQuery struct {
		Start string `query:"start" validate:"omitempty,isodate"`
		End   string `query:"end" validate:"omitempty,isodate"`
	}
)

func (q DateQuery) sort() question.Sort {
	return question.ParseSort(q.Sort)
}

// bindQuery binds and validates query params, whatever the request method.
func (s *Server) bindQuery(ctx echo.Context, dest interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, dest); err != nil {
		return errors.Wrap(err, "binding query params")
	}
	return s.deps.Validate.Struct(dest)
}

func bindBody(ctx echo.Context, dest interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(ctx, dest); err != nil {
		return errors.Wrap(err, "binding request body")
	}
	return nil
}

func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
