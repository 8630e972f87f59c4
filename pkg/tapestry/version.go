package tapestry

// Version is the Tapestry release version.
const Version = "0.3.0"
