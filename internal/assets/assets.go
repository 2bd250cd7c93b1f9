package assets

// DefaultShellName is the name of the built-in document shell.
const DefaultShellName = "document"
