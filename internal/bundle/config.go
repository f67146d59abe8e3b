package bundle

type Options struct {
	// Directory relative paths in the configuration resolve against, defaults
	// to the process working directory
	WorkingDir string
	// Output directory used when the configuration leaves output.path unset
	DefaultOutdir string
	// Metafile name, written inside the output directory
	MetafileName string
	// Port the dev server listens on when devServer.port is unset
	DefaultPort int
}

// DefaultOptions returns a sensible default configuration
func DefaultOptions() Options {
	return Options{
		DefaultOutdir: "dist",
		MetafileName:  "meta.json",
		DefaultPort:   8080,
	}
}
