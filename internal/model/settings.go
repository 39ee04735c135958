package model

import (
	"encoding/json"
	"slices"
)

// Socials holds the platform's social media links.
type Socials struct {
	Facebook  string `json:"facebook" mapstructure:"facebook"`
	YouTube   string `json:"youtube" mapstructure:"youtube"`
	TikTok    string `json:"tiktok" mapstructure:"tiktok"`
	Instagram string `json:"instagram" mapstructure:"instagram"`
}

// AppSettings is the process-wide branding and payment configuration.
type AppSettings struct {
	AppName        string   `json:"app_name" mapstructure:"app_name"`
	SupportEmail   string   `json:"support_email" mapstructure:"support_email"`
	AdminUPIID     string   `json:"admin_upi_id" mapstructure:"admin_upi_id"`
	AdminQRCodeURL string   `json:"admin_qr_code_url" mapstructure:"admin_qr_code_url"`
	AppLogoURL     string   `json:"app_logo_url" mapstructure:"app_logo_url"`
	BannerAds      []string `json:"banner_ads" mapstructure:"banner_ads"`
	Socials        Socials  `json:"socials" mapstructure:"socials"`
}

// DefaultSettings returns the built-in settings used when nothing is configured.
func DefaultSettings() AppSettings {
	return AppSettings{
		AppName:      "Tourna NP",
		SupportEmail: "support@tournanp.com",
		BannerAds:    []string{},
	}
}

// Clone returns a copy that shares no memory with s.
func (s AppSettings) Clone() AppSettings {
	s.BannerAds = slices.Clone(s.BannerAds)
	if s.BannerAds == nil {
		s.BannerAds = []string{}
	}
	return s
}

// MergeSettings overlays stored settings onto defaults. Keys absent from raw,
// including nested social links, keep their default value. Empty raw yields
// the defaults.
func MergeSettings(defaults AppSettings, raw []byte) (AppSettings, error) {
	merged := defaults.Clone()
	if len(raw) == 0 {
		return merged, nil
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return defaults.Clone(), err
	}
	return merged.Clone(), nil
}
