package settings

import (
	"errors"
	"time"
)

var ErrUnknownSetting = errors.New("unknown site setting")

const (
	KeySiteName           = "site_name"
	KeySiteLogo           = "site_logo"
	KeySiteDescription    = "site_description"
	KeyCurrency           = "currency"
	KeyCurrencyCode       = "currency_code"
	KeyHeroBadgeText      = "hero_badge_text"
	KeyHeroTitlePrefix    = "hero_title_prefix"
	KeyHeroTitleHighlight = "hero_title_highlight"
	KeyHeroTitleSuffix    = "hero_title_suffix"
	KeyHeroSubtext        = "hero_subtext"
	KeyHeroTagline        = "hero_tagline"
	KeyHeroDescription    = "hero_description"
	KeyHeroAccentColor    = "hero_accent_color"
)

// Setting is one stored row of site_settings.
type Setting struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SiteSettings struct {
	SiteName           string `json:"site_name"`
	SiteLogo           string `json:"site_logo"`
	SiteDescription    string `json:"site_description"`
	Currency           string `json:"currency"`
	CurrencyCode       string `json:"currency_code"`
	HeroBadgeText      string `json:"hero_badge_text"`
	HeroTitlePrefix    string `json:"hero_title_prefix"`
	HeroTitleHighlight string `json:"hero_title_highlight"`
	HeroTitleSuffix    string `json:"hero_title_suffix"`
	HeroSubtext        string `json:"hero_subtext"`
	HeroTagline        string `json:"hero_tagline"`
	HeroDescription    string `json:"hero_description"`
	HeroAccentColor    string `json:"hero_accent_color"`
}

func Defaults() SiteSettings {
	return SiteSettings{
		SiteName:           "Glowform Lab",
		SiteLogo:           "/assets/logo.jpg",
		SiteDescription:    "Where science meets sparkle, wellness designed to help you glow with confidence.",
		Currency:           "PHP",
		CurrencyCode:       "PHP",
		HeroBadgeText:      "Magical Wellness Science",
		HeroTitlePrefix:    "The New Improved",
		HeroTitleHighlight: "You",
		HeroTitleSuffix:    "Designed for Your Glow-Up Era",
		HeroSubtext:        "Where science meets sparkle, magical wellness designed to help you glow.",
		HeroTagline:        "Science-backed products. Trusted by our glow community.",
		HeroDescription:    "Premium peptides and wellness solutions crafted for your transformation journey.",
		HeroAccentColor:    "gold-500",
	}
}

func (s *SiteSettings) field(key string) *string {
	switch key {
	case KeySiteName:
		return &s.SiteName
	case KeySiteLogo:
		return &s.SiteLogo
	case KeySiteDescription:
		return &s.SiteDescription
	case KeyCurrency:
		return &s.Currency
	case KeyCurrencyCode:
		return &s.CurrencyCode
	case KeyHeroBadgeText:
		return &s.HeroBadgeText
	case KeyHeroTitlePrefix:
		return &s.HeroTitlePrefix
	case KeyHeroTitleHighlight:
		return &s.HeroTitleHighlight
	case KeyHeroTitleSuffix:
		return &s.HeroTitleSuffix
	case KeyHeroSubtext:
		return &s.HeroSubtext
	case KeyHeroTagline:
		return &s.HeroTagline
	case KeyHeroDescription:
		return &s.HeroDescription
	case KeyHeroAccentColor:
		return &s.HeroAccentColor
	}
	return nil
}

func IsKnownKey(key string) bool {
	var s SiteSettings
	return s.field(key) != nil
}

// Merge overlays stored rows on the defaults. Unknown ids and blank values
// are ignored.
func Merge(rows []Setting) SiteSettings {
	s := Defaults()
	for _, row := range rows {
		if row.Value == "" {
			continue
		}
		if f := s.field(row.ID); f != nil {
			*f = row.Value
		}
	}
	return s
}
