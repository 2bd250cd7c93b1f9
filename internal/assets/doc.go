// Package assets provides the HTML document shells used to wrap extracted
// platform HTML into standalone pages.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in shell)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the converter. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the shell is not
// found. This enables overriding the shell while keeping the default.
//
// # Directory Structure
//
//	{basePath}/
//	└── templates/
//	    └── {name}.html          # html/template document shell
//
// A shell receives .Title, .PlatformName, .Theme, .Lang and .Body (the
// extracted HTML, already trusted).
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
