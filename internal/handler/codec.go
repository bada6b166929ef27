package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// readBody returns a decoder over the request body, capped at maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) (*jx.Decoder, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	if len(body) == 0 {
		return nil, badRequest("request body required")
	}
	return jx.DecodeBytes(body), nil
}

// decodeObj decodes a JSON object body, wrapping syntax errors as bad requests.
func decodeObj(w http.ResponseWriter, r *http.Request, f func(d *jx.Decoder, key string) error) error {
	d, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := d.Obj(f); err != nil {
		if errors.Is(err, errBadRequest) {
			return err
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeMoney(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var s string
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		s = v
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		s = n.String()
	default:
		return decimal.Decimal{}, badRequest("expected a number")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, badRequest("invalid number %q", s)
	}
	return v, nil
}

// decodeTime accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date.
func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, badRequest("invalid timestamp %q", s)
}

// decodeOptStr reads a string, treating null as empty.
func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
