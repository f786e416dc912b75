// Package cdd holds the subset of the Cloud Device Description format
// carried in destination capability documents.
package cdd

type CloudDeviceDescription struct {
	Version string              `json:"version"`
	Printer *PrinterDescription `json:"printer,omitempty"`
}

type PrinterDescription struct {
	SupportedContentType *[]SupportedContentType `json:"supported_content_type,omitempty"`
	Color                *Color                  `json:"color,omitempty"`
	Duplex               *Duplex                 `json:"duplex,omitempty"`
	PageOrientation      *PageOrientation        `json:"page_orientation,omitempty"`
	Copies               *Copies                 `json:"copies,omitempty"`
	DPI                  *DPI                    `json:"dpi,omitempty"`
	Collate              *Collate                `json:"collate,omitempty"`
	MediaSize            *MediaSize              `json:"media_size,omitempty"`
}

type SupportedContentType struct {
	ContentType string `json:"content_type"`
}

type Color struct {
	Option []ColorOption `json:"option"`
}

type ColorOption struct {
	VendorID                   string             `json:"vendor_id,omitempty"`
	Type                       string             `json:"type"` // enum
	CustomDisplayName          string             `json:"custom_display_name,omitempty"`
	IsDefault                  bool               `json:"is_default,omitempty"`
	CustomDisplayNameLocalized *[]LocalizedString `json:"custom_display_name_localized,omitempty"`
}

type Duplex struct {
	Option []DuplexOption `json:"option"`
}

type DuplexOption struct {
	Type      string `json:"type"` // enum
	IsDefault bool   `json:"is_default,omitempty"`
}

type PageOrientation struct {
	Option []PageOrientationOption `json:"option"`
}

type PageOrientationOption struct {
	Type      string `json:"type"` // enum
	IsDefault bool   `json:"is_default,omitempty"`
}

type Copies struct {
	Default int32 `json:"default,omitempty"`
	Max     int32 `json:"max,omitempty"`
}

type DPI struct {
	Option []DPIOption `json:"option"`
}

type DPIOption struct {
	HorizontalDPI int32  `json:"horizontal_dpi"`
	VerticalDPI   int32  `json:"vertical_dpi"`
	IsDefault     bool   `json:"is_default,omitempty"`
	VendorID      string `json:"vendor_id,omitempty"`
}

type Collate struct {
	Default bool `json:"default,omitempty"`
}

type MediaSize struct {
	Option []MediaSizeOption `json:"option"`
}

type MediaSizeOption struct {
	Name              string `json:"name,omitempty"` // enum
	WidthMicrons      int32  `json:"width_microns,omitempty"`
	HeightMicrons     int32  `json:"height_microns,omitempty"`
	IsContinuousFeed  bool   `json:"is_continuous_feed,omitempty"`
	IsDefault         bool   `json:"is_default,omitempty"`
	CustomDisplayName string `json:"custom_display_name,omitempty"`
}

type LocalizedString struct {
	Locale string `json:"locale"`
	Value  string `json:"value"`
}
