package domain

// Variant identifies an optional fetch mode offered by a proxy front-end.
// Variant tools are addressed as "{base}/{variant}/{url}" on the wire.
type Variant string

const (
	VariantRender     Variant = "render"     // render the page in a headless browser first
	VariantRaw        Variant = "raw"        // return the page without Markdown conversion
	VariantNoCache    Variant = "nocache"    // bypass the proxy cache
	VariantScreenshot Variant = "screenshot" // capture a screenshot of the page
)

// ServiceProfile parameterizes one proxy front-end. The front-ends share the
// same wire contract and differ only in the values captured here, so a single
// profile value drives tool naming, header injection, and URL construction.
type ServiceProfile struct {
	// Name is the profile identifier used in configuration.
	Name string

	// NamePrefix is prepended to every tool name ("{prefix}-fetch-url", ...).
	NamePrefix string

	// HeaderName is the request header that carries the API key.
	HeaderName string

	// DefaultBaseURL is the proxy origin used when no override is configured.
	DefaultBaseURL string

	// KeyEnvVar names the environment variable holding the API key.
	KeyEnvVar string

	// Variants lists the optional fetch modes this front-end supports,
	// in the order their tools should be listed.
	Variants []Variant
}

var profiles = []ServiceProfile{
	{
		Name:           "markweb",
		NamePrefix:     "markweb",
		HeaderName:     "x-markweb-api-token",
		DefaultBaseURL: "https://markweb.io",
		KeyEnvVar:      "MARKWEB_API_KEY",
	},
	{
		Name:           "snapweb",
		NamePrefix:     "snapweb",
		HeaderName:     "x-snapweb-api-token",
		DefaultBaseURL: "https://snapweb.dev",
		KeyEnvVar:      "SNAPWEB_API_KEY",
		Variants:       []Variant{VariantRender, VariantRaw, VariantNoCache, VariantScreenshot},
	},
}

// Profiles returns the known front-end profiles in a stable order.
func Profiles() []ServiceProfile {
	out := make([]ServiceProfile, len(profiles))
	copy(out, profiles)
	return out
}

// ProfileByName looks up a front-end profile by its configuration name.
func ProfileByName(name string) (ServiceProfile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return ServiceProfile{}, false
}
