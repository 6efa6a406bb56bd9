package auth

// Classification buckets an operation name for the middleware.
type Classification int

const (
	// Unclassified methods pass through unauthenticated. Known fail-open
	// behavior; tightening it would break clients that send vendor
	// extensions during session setup.
	Unclassified Classification = iota
	Open
	Protected
)

// openMethods never require a bearer token: session setup, discovery and
// liveness must work before the caller has obtained credentials.
var openMethods = map[string]struct{}{
	"initialize":                {},
	"notifications/initialized": {},
	"ping":                      {},
	"tools/list":                {},
	"resources/list":            {},
	"resources/templates/list":  {},
	"prompts/list":              {},
}

// protectedMethods require a verified assertion before any tool logic runs.
var protectedMethods = map[string]struct{}{
	"tools/call": {},
}

// Classify is a pure lookup; it has no failure mode.
func Classify(method string) Classification {
	if _, ok := openMethods[method]; ok {
		return Open
	}
	if _, ok := protectedMethods[method]; ok {
		return Protected
	}
	return Unclassified
}
