package main

// Overridden at build time via -ldflags "-X main.buildVersion=..."
var (
	buildVersion = "dev"
	buildDate    = "unknown"
)

var buildInfo = map[string]string{
	"buildVersion": buildVersion,
	"buildDate":    buildDate,
}
