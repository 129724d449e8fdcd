package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/guarzo/sellermargin/internal/errx"
)

func requiredString(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", errx.New(errx.InvalidRequest, name+" 파라미터가 필요합니다.")
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errx.Wrap(errx.InvalidRequest, err, name+" 파라미터는 정수여야 합니다.")
	}
	return v, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return parseFloat(name, raw)
}

func requiredFloat(r *http.Request, name string) (float64, error) {
	raw, err := requiredString(r, name)
	if err != nil {
		return 0, err
	}
	return parseFloat(name, raw)
}

func parseFloat(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errx.Wrap(errx.InvalidRequest, err, name+" 파라미터는 숫자여야 합니다.")
	}
	return v, nil
}

// boolParam also accepts the yes/no and on/off spellings browsers send.
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	switch raw {
	case "":
		return def, nil
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errx.Wrap(errx.InvalidRequest, err, name+" 파라미터는 true 또는 false여야 합니다.")
	}
	return v, nil
}
