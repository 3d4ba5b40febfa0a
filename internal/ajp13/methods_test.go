package ajp13

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertHTTPMethodKnown(t *testing.T) {
	cases := map[string]Method{
		"GET":     MethodGet,
		"POST":    MethodPost,
		"HEAD":    MethodHead,
		"OPTIONS": MethodOptions,
		"PUT":     MethodPut,
		"DELETE":  MethodDelete,
	}
	for http, want := range cases {
		assert.Equal(t, want, ConvertHTTPMethod(http), http)
	}
}

// ConvertHTTPMethod must return the AJP13 numeric code, not the input
// string back — a fallback that returns the unmatched HTTP verb itself
// would silently corrupt every packet past the method byte.
func TestConvertHTTPMethodUnknownFallsBackToUnknownCode(t *testing.T) {
	got := ConvertHTTPMethod("CONNECT")
	assert.Equal(t, MethodUnknown, got)
	assert.Equal(t, Method(0), got)
}

func TestMethodStringRoundTrip(t *testing.T) {
	assert.Equal(t, "PROPFIND", MethodPropfind.String())
	assert.Equal(t, "UNKNOWN", MethodUnknown.String())
}
