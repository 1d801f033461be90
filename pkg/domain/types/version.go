package types

// Version is the releasebot build version, overwritten by -ldflags at release time
var Version = "dev"

// AppName is used for user agents, log output and HTTP health responses
const AppName = "releasebot"
