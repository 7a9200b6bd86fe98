package config

// Version is the dlsim binary version.
// Set at build time via: -ldflags "-X github.com/croissant-tools/dlsim/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
