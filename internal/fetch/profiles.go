package fetch

import "net/http"

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FanzaProfile returns the request profile for FANZA. The age_check_done
// cookie skips the age-verification interstitial.
func FanzaProfile(baseURL string) SiteProfile {
	return SiteProfile{
		Name:      "fanza",
		UserAgent: desktopUA,
		Headers: map[string]string{
			"Referer": baseURL + "/",
		},
		Cookies: []*http.Cookie{
			{Name: "age_check_done", Value: "1"},
			{Name: "ckcy", Value: "1"},
		},
	}
}

// MGSProfile returns the request profile for MGS. MGS requires both the
// adult-check cookie and a visit to the age-check landing page before
// detail pages respond with real content.
func MGSProfile(baseURL string) SiteProfile {
	return SiteProfile{
		Name:      "mgs",
		UserAgent: desktopUA,
		Cookies: []*http.Cookie{
			{Name: "adc", Value: "1"},
			{Name: "coc", Value: "1"},
		},
		AgeGateURL: baseURL + "/ageauth/",
	}
}

// WikiProfile returns a plain profile for auxiliary wiki sites, which have
// no age gate and need no special cookies.
func WikiProfile(name string) SiteProfile {
	return SiteProfile{
		Name:      name,
		UserAgent: desktopUA,
	}
}
