package destination

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name     string
		data     string
		origin   Origin
		account  string
		expected *Destination
		hasErr   bool
	}{
		{
			name:    "minimal valid printer",
			data:    `{"id": "p1", "type": "GOOGLE", "displayName": "Printer One"}`,
			origin:  Cookies,
			account: "user@example.com",
			expected: &Destination{
				Id:                "p1",
				Type:              Google,
				Origin:            Cookies,
				DisplayName:       "Printer One",
				Account:           "user@example.com",
				ConnectionStatus:  UnknownConn,
				CertificateStatus: CertificateUnknown,
			},
		},
		{
			name:    "full printer",
			data:    `{"id": "p2", "type": "GOOGLE_PROMOTED", "displayName": "Drive", "description": "save as pdf", "connectionStatus": "ONLINE", "tags": ["__cp_printer_passes_certificate__=true"], "accessTime": "1700000000000"}`,
			origin:  Cookies,
			account: "user@example.com",
			expected: &Destination{
				Id:                "p2",
				Type:              GooglePromoted,
				Origin:            Cookies,
				DisplayName:       "Drive",
				Description:       "save as pdf",
				Account:           "user@example.com",
				ConnectionStatus:  Online,
				Tags:              []string{"__cp_printer_passes_certificate__=true"},
				CertificateStatus: CertificateYes,
				LastAccessed:      1700000000000,
			},
		},
		{
			name:    "failed certificate",
			data:    `{"id": "p3", "type": "GOOGLE", "displayName": "Old", "tags": ["__cp_printer_passes_certificate__=false"]}`,
			origin:  Device,
			account: "",
			expected: &Destination{
				Id:                "p3",
				Type:              Google,
				Origin:            Device,
				DisplayName:       "Old",
				Tags:              []string{"__cp_printer_passes_certificate__=false"},
				ConnectionStatus:  UnknownConn,
				CertificateStatus: CertificateNo,
			},
		},
		{
			name:   "missing id",
			data:   `{"type": "GOOGLE", "displayName": "No Id"}`,
			origin: Cookies,
			hasErr: true,
		},
		{
			name:   "missing type",
			data:   `{"id": "p4", "displayName": "No Type"}`,
			origin: Cookies,
			hasErr: true,
		},
		{
			name:   "missing display name",
			data:   `{"id": "p5", "type": "GOOGLE"}`,
			origin: Cookies,
			hasErr: true,
		},
		{
			name:   "unknown type",
			data:   `{"id": "p6", "type": "TELETYPE", "displayName": "What"}`,
			origin: Cookies,
			hasErr: true,
		},
		{
			name:   "not json",
			data:   `"p7"`,
			origin: Cookies,
			hasErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dest, err := Parse(json.RawMessage(tc.data), tc.origin, tc.account)

			if tc.hasErr {
				assert.NotNil(t, err)
				return
			}

			require.Nil(t, err)
			assert.Equal(t, tc.expected, dest)
		})
	}
}

func TestKey(t *testing.T) {
	d1 := &Destination{Id: "p1", Origin: Cookies, Account: "a"}
	d2 := &Destination{Id: "p1", Origin: Device, Account: "a"}
	d3 := &Destination{Id: "p1", Origin: Cookies, Account: "b"}

	assert.NotEqual(t, d1.Key(), d2.Key())
	assert.NotEqual(t, d1.Key(), d3.Key())
	assert.Equal(t, d1.Key(), (&Destination{Id: "p1", Origin: Cookies, Account: "a"}).Key())
}

func TestOriginJson(t *testing.T) {
	data, err := json.Marshal(Cookies)
	require.Nil(t, err)
	assert.Equal(t, `"cookies"`, string(data))

	var origin Origin
	require.Nil(t, json.Unmarshal([]byte(`"device"`), &origin))
	assert.Equal(t, Device, origin)

	assert.NotNil(t, json.Unmarshal([]byte(`"carrier-pigeon"`), &origin))
}

func TestTypeJson(t *testing.T) {
	data, err := json.Marshal(GooglePromoted)
	require.Nil(t, err)
	assert.Equal(t, `"GOOGLE_PROMOTED"`, string(data))

	var kind Type
	require.Nil(t, json.Unmarshal([]byte(`"MOBILE"`), &kind))
	assert.Equal(t, Mobile, kind)

	assert.NotNil(t, json.Unmarshal([]byte(`"FAX"`), &kind))
}

func TestZeroValueEnumsRoundTrip(t *testing.T) {
	// destinations built by hand (not parsed from a response) may carry
	// zero-valued enums; marshaling must not fail and the persisted form
	// must read back
	data, err := json.Marshal(&Destination{Id: "p1", DisplayName: "Lobby"})
	require.Nil(t, err)
	assert.Contains(t, string(data), `"type":"UNKNOWN"`)
	assert.Contains(t, string(data), `"origin":"unknown"`)

	dest := &Destination{}
	require.Nil(t, json.Unmarshal(data, dest))
	assert.Equal(t, Type(0), dest.Type)
	assert.Equal(t, Origin(0), dest.Origin)
	assert.Equal(t, "p1", dest.Id)
}
