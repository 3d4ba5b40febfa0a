package ajp13

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed headercodes.yaml
var embeddedHeaderCodes []byte

type headerCodeEntry struct {
	Name string `yaml:"name"`
	Code int    `yaml:"code"`
}

type headerCodeTable struct {
	RequestHeaderCodes  []headerCodeEntry `yaml:"request_header_codes"`
	ResponseHeaderCodes []headerCodeEntry `yaml:"response_header_codes"`
}

var (
	requestHeaderCodes  map[string]uint16
	responseHeaderCodes map[uint16]string
)

func init() {
	if err := loadHeaderCodes(embeddedHeaderCodes); err != nil {
		panic(fmt.Sprintf("ajp13: embedded header code table invalid: %v", err))
	}
}

// LoadHeaderCodesFile replaces the process-wide header-code tables with
// an external YAML file in the same shape as the embedded asset. Used
// when backend.header_codes_path is set.
func LoadHeaderCodesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ajp13: read header code table: %w", err)
	}
	return loadHeaderCodes(data)
}

func loadHeaderCodes(data []byte) error {
	var t headerCodeTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parse header code table: %w", err)
	}
	if len(t.RequestHeaderCodes) == 0 || len(t.ResponseHeaderCodes) == 0 {
		return fmt.Errorf("header code table missing request or response section")
	}

	req := make(map[string]uint16, len(t.RequestHeaderCodes))
	for _, e := range t.RequestHeaderCodes {
		req[strings.ToUpper(e.Name)] = uint16(e.Code)
	}
	resp := make(map[uint16]string, len(t.ResponseHeaderCodes))
	for _, e := range t.ResponseHeaderCodes {
		resp[uint16(e.Code)] = e.Name
	}

	requestHeaderCodes = req
	responseHeaderCodes = resp
	return nil
}

func lookupRequestHeaderCode(name string) (uint16, bool) {
	code, ok := requestHeaderCodes[strings.ToUpper(name)]
	return code, ok
}

func lookupResponseHeaderName(code uint16) (string, bool) {
	name, ok := responseHeaderCodes[code]
	return name, ok
}
