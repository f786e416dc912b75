package destination

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/printhq/cloudprint/pkg/cdd"
)

// Destination is a printer or print-capable service reachable through the
// cloud print API. Immutable after parsing except for Capabilities, which
// may be attached later from a printer lookup.
type Destination struct {
	Id                string                      `json:"id"`
	Type              Type                        `json:"type"`
	Origin            Origin                      `json:"origin"`
	DisplayName       string                      `json:"displayName"`
	Description       string                      `json:"description,omitempty"`
	Account           string                      `json:"account,omitempty"`
	ConnectionStatus  ConnectionStatus            `json:"connectionStatus"`
	Tags              []string                    `json:"tags,omitempty"`
	Capabilities      *cdd.CloudDeviceDescription `json:"capabilities,omitempty"`
	CertificateStatus CertificateStatus           `json:"certificateStatus"`
	LastAccessed      int64                       `json:"lastAccessed,omitempty"` // unix millis
}

func (d *Destination) String() string {
	return fmt.Sprintf("Destination(id=%s, type=%s, origin=%s, displayName=%s, account=%s)", d.Id, d.Type, d.Origin, d.DisplayName, d.Account)
}

// Key identifies a destination across accounts and credential origins.
func (d *Destination) Key() string {
	return fmt.Sprintf("%s/%s/%s", d.Id, d.Origin, d.Account)
}

type Origin int

const (
	Cookies Origin = 1 << iota // 1
	Device                     // 2
)

// CloudOrigins are the origins a cloud search fans out to.
var CloudOrigins = []Origin{Cookies, Device}

func (o Origin) String() string {
	switch o {
	case Cookies:
		return "cookies"
	case Device:
		return "device"
	default:
		return "unknown"
	}
}

func (o Origin) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Origin) UnmarshalJSON(data []byte) error {
	var origin string
	if err := json.Unmarshal(data, &origin); err != nil {
		return err
	}

	switch strings.ToLower(origin) {
	case "cookies":
		*o = Cookies
	case "device":
		*o = Device
	case "unknown":
		*o = 0
	default:
		return fmt.Errorf("invalid origin '%s'", origin)
	}

	return nil
}

type Type int

const (
	Google Type = 1 << iota // 1
	GooglePromoted          // 2
	Mobile                  // 4
)

func (t Type) String() string {
	switch t {
	case Google:
		return "GOOGLE"
	case GooglePromoted:
		return "GOOGLE_PROMOTED"
	case Mobile:
		return "MOBILE"
	default:
		return "UNKNOWN"
	}
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err != nil {
		return err
	}

	// the zero value round trips; destinations read back from the recent
	// cache may predate their type being known
	if strings.ToUpper(kind) == "UNKNOWN" {
		*t = 0
		return nil
	}

	parsed, err := parseType(kind)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}

func parseType(kind string) (Type, error) {
	switch strings.ToUpper(kind) {
	case "GOOGLE":
		return Google, nil
	case "GOOGLE_PROMOTED":
		return GooglePromoted, nil
	case "MOBILE", "ANDROID_CHROME_SNAPSHOT", "IOS_CHROME_SNAPSHOT":
		return Mobile, nil
	default:
		return 0, fmt.Errorf("invalid destination type '%s'", kind)
	}
}

type ConnectionStatus string

const (
	Online      ConnectionStatus = "ONLINE"
	Offline     ConnectionStatus = "OFFLINE"
	Dormant     ConnectionStatus = "DORMANT"
	UnknownConn ConnectionStatus = "UNKNOWN"
)

type CertificateStatus string

const (
	CertificateUnknown CertificateStatus = "UNKNOWN"
	CertificateYes     CertificateStatus = "YES"
	CertificateNo      CertificateStatus = "NO"
)

// certificateTag marks cloud destinations that passed certification.
const certificateTag = "__cp_printer_passes_certificate__="

type wire struct {
	Id               string                      `json:"id"`
	Type             string                      `json:"type"`
	DisplayName      string                      `json:"displayName"`
	Description      string                      `json:"description"`
	ConnectionStatus string                      `json:"connectionStatus"`
	Tags             []string                    `json:"tags"`
	Capabilities     *cdd.CloudDeviceDescription `json:"capabilities"`
	AccessTime       json.Number                 `json:"accessTime"`
}

// Parse builds a Destination from one entry of a search or printer
// response. The id, type and displayName fields are required.
func Parse(data json.RawMessage, origin Origin, account string) (*Destination, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	if w.Id == "" || w.Type == "" || w.DisplayName == "" {
		return nil, fmt.Errorf("destination missing id, type, or displayName")
	}

	kind, err := parseType(w.Type)
	if err != nil {
		return nil, err
	}

	connectionStatus := UnknownConn
	switch ConnectionStatus(w.ConnectionStatus) {
	case Online, Offline, Dormant:
		connectionStatus = ConnectionStatus(w.ConnectionStatus)
	}

	certificateStatus := CertificateUnknown
	for _, tag := range w.Tags {
		if value, ok := strings.CutPrefix(tag, certificateTag); ok {
			if value == "true" {
				certificateStatus = CertificateYes
			} else {
				certificateStatus = CertificateNo
			}
		}
	}

	var lastAccessed int64
	if w.AccessTime != "" {
		lastAccessed, _ = w.AccessTime.Int64()
	}

	return &Destination{
		Id:                w.Id,
		Type:              kind,
		Origin:            origin,
		DisplayName:       w.DisplayName,
		Description:       w.Description,
		Account:           account,
		ConnectionStatus:  connectionStatus,
		Tags:              w.Tags,
		Capabilities:      w.Capabilities,
		CertificateStatus: certificateStatus,
		LastAccessed:      lastAccessed,
	}, nil
}
